package strategy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/anime-shed/image-discovery-go/internal/model"
)

// TransportDecision says how image bytes travel to the model provider.
type TransportDecision int

const (
	// Inline embeds the bytes in the generation request.
	Inline TransportDecision = iota
	// UploadReference stages the bytes first and sends a file reference.
	UploadReference
)

func (d TransportDecision) String() string {
	switch d {
	case Inline:
		return "inline"
	case UploadReference:
		return "upload_reference"
	default:
		return fmt.Sprintf("transport(%d)", int(d))
	}
}

// Decide picks Inline iff size <= inlineThreshold.
func Decide(size, inlineThreshold int) TransportDecision {
	if size <= inlineThreshold {
		return Inline
	}
	return UploadReference
}

// Payload is the transcoded image handed to a transport strategy.
type Payload struct {
	Data     []byte
	MIMEType string
}

// TransportStrategy sends one payload plus prompt to the provider.
type TransportStrategy interface {
	Generate(ctx context.Context, provider model.Provider, payload Payload, prompt string, opts model.GenerateOptions) (*model.Generation, error)
	GetStrategyName() string
}

// InlineStrategy embeds the payload directly in the request.
type InlineStrategy struct{}

func NewInlineStrategy() TransportStrategy {
	return &InlineStrategy{}
}

func (s *InlineStrategy) Generate(ctx context.Context, provider model.Provider, payload Payload, prompt string, opts model.GenerateOptions) (*model.Generation, error) {
	return provider.GenerateInline(ctx, payload.Data, payload.MIMEType, prompt, opts)
}

func (s *InlineStrategy) GetStrategyName() string {
	return Inline.String()
}

// UploadReferenceStrategy stages the payload, then references the staged file.
// Staged files are left for the provider to expire.
type UploadReferenceStrategy struct{}

func NewUploadReferenceStrategy() TransportStrategy {
	return &UploadReferenceStrategy{}
}

func (s *UploadReferenceStrategy) Generate(ctx context.Context, provider model.Provider, payload Payload, prompt string, opts model.GenerateOptions) (*model.Generation, error) {
	handle, err := provider.UploadStagingFile(ctx, payload.Data, payload.MIMEType, stagingName(payload.Data))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return provider.GenerateWithFileRef(ctx, handle, prompt, opts)
}

func (s *UploadReferenceStrategy) GetStrategyName() string {
	return UploadReference.String()
}

// For returns the strategy implementing a decision.
func For(decision TransportDecision) TransportStrategy {
	if decision == UploadReference {
		return NewUploadReferenceStrategy()
	}
	return NewInlineStrategy()
}

func stagingName(data []byte) string {
	sum := sha256.Sum256(data)
	return "analysis-" + hex.EncodeToString(sum[:6]) + ".jpg"
}
