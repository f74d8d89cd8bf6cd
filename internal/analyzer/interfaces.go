package analyzer

import (
	"context"

	"github.com/anime-shed/image-discovery-go/pkg/models"
)

// ImageAcquirer turns an ImageSource into raw bytes.
type ImageAcquirer interface {
	Acquire(ctx context.Context, source ImageSource) ([]byte, error)
}

// ImageClassifier sniffs the content type of raw bytes.
type ImageClassifier interface {
	Classify(raw []byte) (string, error)
}

// ImageTranscoder normalizes raw image bytes into a bounded JPEG.
type ImageTranscoder interface {
	Transcode(raw []byte, maxLongEdge, quality int) ([]byte, error)
}

// PromptBuilder renders the model instruction.
type PromptBuilder interface {
	Build(pc PromptContext) string
}

// ModelInvoker sends a transcoded image and prompt to the model provider.
type ModelInvoker interface {
	Invoke(ctx context.Context, data []byte, prompt string) (*Invocation, error)
}

// ResponseParser validates the model's raw answer.
type ResponseParser interface {
	Parse(raw string) (*models.StructuredAnalysis, error)
}
