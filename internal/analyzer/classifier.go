package analyzer

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
)

type imageClassifier struct{}

// NewImageClassifier creates a magic-byte classifier.
func NewImageClassifier() ImageClassifier {
	return &imageClassifier{}
}

// Classify returns the sniffed MIME type without parameters.
func (c *imageClassifier) Classify(raw []byte) (string, error) {
	mime := SniffMIME(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", apperrors.NewNotAnImageError(mime)
	}
	return mime, nil
}

// SniffMIME detects the content type of raw from its leading bytes.
func SniffMIME(raw []byte) string {
	detected := mimetype.Detect(raw).String()
	base, _, _ := strings.Cut(detected, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// ExtensionFor returns the canonical file extension for mime, including the
// leading dot, or "" when unknown.
func ExtensionFor(mime string) string {
	if m := mimetype.Lookup(mime); m != nil {
		return m.Extension()
	}
	return ""
}
