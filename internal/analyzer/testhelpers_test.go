package analyzer

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/anime-shed/image-discovery-go/internal/model"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// pngHeader returns a PNG holding only a signature and an IHDR chunk for a
// w x h grayscale image. It is enough for image.DecodeConfig and nothing else.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth; color type, compression, filter and interlace stay 0

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("format = %s, want jpeg", format)
	}
	return cfg.Width, cfg.Height
}

// stubProvider answers every generation with a fixed text.
type stubProvider struct {
	mu          sync.Mutex
	text        string
	err         error
	response    *model.Generation
	calls       []string
	lastOptions model.GenerateOptions
}

func (p *stubProvider) record(call string, opts model.GenerateOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	p.lastOptions = opts
}

func (p *stubProvider) answer() (*model.Generation, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.response != nil {
		return p.response, nil
	}
	return &model.Generation{Text: p.text}, nil
}

func (p *stubProvider) GenerateInline(ctx context.Context, data []byte, mimeType, prompt string, opts model.GenerateOptions) (*model.Generation, error) {
	p.record("inline", opts)
	return p.answer()
}

func (p *stubProvider) UploadStagingFile(ctx context.Context, data []byte, mimeType, displayName string) (*model.FileHandle, error) {
	p.record("upload", model.GenerateOptions{})
	return &model.FileHandle{Name: "files/abc", URI: "https://files.example/abc", MIMEType: mimeType}, nil
}

func (p *stubProvider) GenerateWithFileRef(ctx context.Context, file *model.FileHandle, prompt string, opts model.GenerateOptions) (*model.Generation, error) {
	p.record("file_ref", opts)
	return p.answer()
}
