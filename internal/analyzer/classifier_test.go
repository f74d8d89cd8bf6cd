package analyzer

import (
	"image/color"
	"testing"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
)

func TestClassify(t *testing.T) {
	classifier := NewImageClassifier()
	img := solidImage(4, 4, color.RGBA{10, 20, 30, 255})

	tests := []struct {
		name     string
		raw      []byte
		wantMIME string
		wantErr  bool
	}{
		{"png", encodePNG(t, img), "image/png", false},
		{"jpeg", encodeJPEG(t, img), "image/jpeg", false},
		{"plain text", []byte("not-an-image"), "", true},
		{"pdf", []byte("%PDF-1.7\n%âãÏÓ\n"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.Classify(tt.raw)
			if tt.wantErr {
				if !apperrors.IsType(err, apperrors.ErrorTypeNotAnImage) {
					t.Fatalf("expected not_an_image, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantMIME {
				t.Errorf("mime = %q, want %q", got, tt.wantMIME)
			}
		})
	}
}

func TestSniffMIMEStripsParameters(t *testing.T) {
	if got := SniffMIME([]byte("hello world")); got != "text/plain" {
		t.Errorf("SniffMIME = %q, want text/plain", got)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":  ".jpg",
		"image/png":   ".png",
		"image/webp":  ".webp",
		"made/up":     "",
	}
	for mime, want := range tests {
		if got := ExtensionFor(mime); got != want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}
