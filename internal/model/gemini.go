package model

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultPollInterval = 500 * time.Millisecond

// GeminiProvider implements Provider with the Gemini API.
type GeminiProvider struct {
	client       *genai.Client
	model        string
	pollInterval time.Duration
}

// NewGeminiProvider builds a client bound to one model. The client is shared
// across requests.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client:       client,
		model:        modelName,
		pollInterval: defaultPollInterval,
	}, nil
}

func (p *GeminiProvider) GenerateInline(ctx context.Context, data []byte, mimeType, prompt string, opts GenerateOptions) (*Generation, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		{Text: prompt},
	}
	return p.generate(ctx, parts, opts)
}

// UploadStagingFile uploads bytes to the Files API and waits until the file
// leaves the PROCESSING state.
func (p *GeminiProvider) UploadStagingFile(ctx context.Context, data []byte, mimeType, displayName string) (*FileHandle, error) {
	file, err := p.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, err
	}

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}
		file, err = p.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, err
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, &ProviderError{Kind: FailureRejected, Message: fmt.Sprintf("staged file %s failed processing", file.Name)}
	}

	handle := &FileHandle{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}
	if handle.MIMEType == "" {
		handle.MIMEType = mimeType
	}
	return handle, nil
}

func (p *GeminiProvider) GenerateWithFileRef(ctx context.Context, file *FileHandle, prompt string, opts GenerateOptions) (*Generation, error) {
	if file == nil || file.URI == "" {
		return nil, &ProviderError{Kind: FailureRejected, Message: "staged file handle has no URI"}
	}
	parts := []*genai.Part{
		{FileData: &genai.FileData{FileURI: file.URI, MIMEType: file.MIMEType}},
		{Text: prompt},
	}
	return p.generate(ctx, parts, opts)
}

func (p *GeminiProvider) generate(ctx context.Context, parts []*genai.Part, opts GenerateOptions) (*Generation, error) {
	config := &genai.GenerateContentConfig{}
	if opts.Grounding {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if opts.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = opts.Schema
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts,
	}}, config)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &ProviderError{Kind: FailureRejected, Message: "model returned no candidates"}
	}

	return &Generation{Text: responseText(resp), Response: resp}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

var _ Provider = (*GeminiProvider)(nil)
