package analyzer

import (
	"encoding/json"
	"errors"
	"strings"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/pkg/models"
)

type responseParser struct{}

// NewResponseParser creates the tolerant JSON answer parser.
func NewResponseParser() ResponseParser {
	return &responseParser{}
}

func (p *responseParser) Parse(raw string) (*models.StructuredAnalysis, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		text := strings.TrimSpace(raw)
		if !strings.HasPrefix(text, "```") {
			return nil, apperrors.NewMalformedModelOutputError(err)
		}
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return nil, apperrors.NewMalformedModelOutputError(err)
		}
		if obj, err = decodeObject(text[start : end+1]); err != nil {
			return nil, apperrors.NewMalformedModelOutputError(err)
		}
	}

	values := make(map[string]string, len(models.RequiredAnalysisFields))
	for _, field := range models.RequiredAnalysisFields {
		var s string
		rawField, ok := obj[field]
		if !ok || json.Unmarshal(rawField, &s) != nil || strings.TrimSpace(s) == "" {
			return nil, apperrors.NewMissingRequiredFieldError(field)
		}
		values[field] = s
	}

	return &models.StructuredAnalysis{
		ObjectLabel:   values[models.FieldObjectLabel],
		AIAnswer:      values[models.FieldAIAnswer],
		AIQuestion:    values[models.FieldAIQuestion],
		GroundingURLs: stringElements(obj[models.FieldGroundingURLs]),
	}, nil
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("answer is not a JSON object")
	}
	return obj, nil
}

// stringElements keeps the string members of a JSON array. Anything that is
// not an array yields an empty list.
func stringElements(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// MergeGroundingURLs appends metadata URLs the model did not list itself.
func MergeGroundingURLs(modelURLs, metadataURLs []string) []string {
	merged := make([]string, 0, len(modelURLs)+len(metadataURLs))
	seen := make(map[string]struct{}, len(modelURLs))
	for _, u := range modelURLs {
		merged = append(merged, u)
		seen[u] = struct{}{}
	}
	for _, u := range metadataURLs {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		merged = append(merged, u)
	}
	return merged
}
