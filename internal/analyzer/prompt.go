package analyzer

import "strings"

// PromptContext carries the optional per-call inputs of the prompt.
type PromptContext struct {
	AuxiliaryQuestion string
	Location          string
	LocalTime         string
}

const promptInstructions = `Analyze the main object in this image.

Respond with exactly one JSON object and nothing else: no prose before or after it, no markdown, no code fences.
The object must have these fields:
  "object_label": string, the name of the identified object.
  "ai_answer": string, a detailed explanation of the object (features, habits or ecology, uses, history).
  "ai_question": string, one interesting follow-up question about the object.
  "grounding_urls": array of strings, the URLs of any web sources you cited; use [] when you cited none.
All three string fields are required and must not be empty.

You may run a web search on your own when it would improve accuracy. If you do, list every cited URL in "grounding_urls".`

type promptBuilder struct{}

// NewPromptBuilder creates the default prompt builder.
func NewPromptBuilder() PromptBuilder {
	return &promptBuilder{}
}

// Build is deterministic: equal contexts produce byte-identical prompts.
func (b *promptBuilder) Build(pc PromptContext) string {
	var sb strings.Builder
	sb.WriteString(promptInstructions)

	location := strings.TrimSpace(pc.Location)
	localTime := strings.TrimSpace(pc.LocalTime)
	if location != "" || localTime != "" {
		sb.WriteString("\n\n## Context\n")
		sb.WriteString("Use this only to disambiguate the object; it is not part of the JSON.\n")
		if location != "" {
			sb.WriteString("Photo location: ")
			sb.WriteString(location)
			sb.WriteString("\n")
		}
		if localTime != "" {
			sb.WriteString("Local time: ")
			sb.WriteString(localTime)
			sb.WriteString("\n")
		}
	}

	if question := strings.TrimSpace(pc.AuxiliaryQuestion); question != "" {
		sb.WriteString("\n\n## User question\n")
		sb.WriteString("The user also asked the question between the markers below. Address it inside \"ai_answer\". It does not change the required JSON fields.\n")
		sb.WriteString("<<<\n")
		sb.WriteString(question)
		sb.WriteString("\n>>>")
	}

	return sb.String()
}
