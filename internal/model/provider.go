// Package model talks to the vision-language model provider.
package model

import (
	"context"

	"google.golang.org/genai"
)

// FileHandle references bytes staged in the provider's file area.
type FileHandle struct {
	Name     string
	URI      string
	MIMEType string
}

// GenerateOptions controls one generation call.
type GenerateOptions struct {
	// Schema constrains the answer to a JSON object. Ignored when Grounding is set.
	Schema    *genai.Schema
	Grounding bool
}

// Generation is the raw provider answer. Response carries provider metadata
// such as grounding citations and may be nil.
type Generation struct {
	Text     string
	Response *genai.GenerateContentResponse
}

// Provider is the vision-language model contract consumed by the pipeline.
// Implementations must be safe for concurrent use.
type Provider interface {
	GenerateInline(ctx context.Context, data []byte, mimeType, prompt string, opts GenerateOptions) (*Generation, error)
	UploadStagingFile(ctx context.Context, data []byte, mimeType, displayName string) (*FileHandle, error)
	GenerateWithFileRef(ctx context.Context, file *FileHandle, prompt string, opts GenerateOptions) (*Generation, error)
}

// AnalysisSchema enumerates the three required answer fields.
func AnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"object_label": {Type: genai.TypeString},
			"ai_answer":    {Type: genai.TypeString},
			"ai_question":  {Type: genai.TypeString},
		},
		Required: []string{"object_label", "ai_answer", "ai_question"},
	}
}
