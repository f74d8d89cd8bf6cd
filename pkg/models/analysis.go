package models

// StructuredAnalysis is the validated result of one image analysis.
// The three string fields are always non-empty.
type StructuredAnalysis struct {
	ObjectLabel   string   `json:"object_label"`
	AIAnswer      string   `json:"ai_answer"`
	AIQuestion    string   `json:"ai_question"`
	GroundingURLs []string `json:"grounding_urls"`
}

// Required output fields, in the order they are validated.
const (
	FieldObjectLabel   = "object_label"
	FieldAIAnswer      = "ai_answer"
	FieldAIQuestion    = "ai_question"
	FieldGroundingURLs = "grounding_urls"
)

var RequiredAnalysisFields = []string{FieldObjectLabel, FieldAIAnswer, FieldAIQuestion}
