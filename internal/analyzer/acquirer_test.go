package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/storage"
)

// blockingStore never answers before the context ends.
type blockingStore struct {
	*storage.MemoryStorage
}

func (s blockingStore) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingStore struct {
	*storage.MemoryStorage
	err error
}

func (s failingStore) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	return nil, s.err
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestAcquire_Upload(t *testing.T) {
	acquirer := NewImageAcquirer(storage.NewMemoryStorage("gs"), time.Second)

	data, err := acquirer.Acquire(context.Background(), FromUpload(strings.NewReader("bytes"), "image/png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "bytes" {
		t.Errorf("data = %q", data)
	}

	_, err = acquirer.Acquire(context.Background(), FromUpload(bytes.NewReader(nil), "image/png"))
	if !apperrors.IsType(err, apperrors.ErrorTypeEmptyInput) {
		t.Errorf("expected empty_input, got %v", err)
	}

	_, err = acquirer.Acquire(context.Background(), FromUpload(nil, ""))
	if !apperrors.IsType(err, apperrors.ErrorTypeEmptyInput) {
		t.Errorf("expected empty_input for nil body, got %v", err)
	}

	_, err = acquirer.Acquire(context.Background(), FromUpload(errReader{}, ""))
	if !apperrors.IsType(err, apperrors.ErrorTypeFetchFailed) {
		t.Errorf("expected fetch_failed for broken stream, got %v", err)
	}
}

func TestAcquire_Reference(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage("gs")
	if err := store.Upload(ctx, "bucket", "images/café.jpg", []byte("jpeg-bytes"), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if err := store.Upload(ctx, "bucket", "empty.jpg", nil, "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	acquirer := NewImageAcquirer(store, time.Second)

	tests := []struct {
		name     string
		uri      string
		wantData string
		wantType apperrors.ErrorType
	}{
		{"found", "gs://bucket/images/caf%C3%A9.jpg", "jpeg-bytes", ""},
		{"nfc normalized", "gs://bucket/images/cafe%CC%81.jpg", "jpeg-bytes", ""},
		{"http rejected", "http://example.com/a.jpg", "", apperrors.ErrorTypeUnsupportedSource},
		{"https rejected", "https://example.com/a.jpg", "", apperrors.ErrorTypeUnsupportedSource},
		{"other storage scheme", "s3://bucket/a.jpg", "", apperrors.ErrorTypeUnsupportedSource},
		{"prefix", "gs://bucket/images/", "", apperrors.ErrorTypeInvalidReference},
		{"not found", "gs://bucket/missing.jpg", "", apperrors.ErrorTypeFetchFailed},
		{"empty object", "gs://bucket/empty.jpg", "", apperrors.ErrorTypeEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := acquirer.Acquire(ctx, FromReference(tt.uri))
			if tt.wantType != "" {
				if !apperrors.IsType(err, tt.wantType) {
					t.Fatalf("expected %s, got %v", tt.wantType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.wantData {
				t.Errorf("data = %q, want %q", data, tt.wantData)
			}
		})
	}
}

func TestAcquire_FetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType apperrors.ErrorType
	}{
		{"permission denied", storage.ErrPermissionDenied, apperrors.ErrorTypeFetchFailed},
		{"transport", errors.New("connection refused"), apperrors.ErrorTypeFetchFailed},
		{"deadline", context.DeadlineExceeded, apperrors.ErrorTypeUpstreamTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acquirer := NewImageAcquirer(failingStore{storage.NewMemoryStorage("gs"), tt.err}, time.Second)
			_, err := acquirer.Acquire(context.Background(), FromReference("gs://bucket/a.jpg"))
			if !apperrors.IsType(err, tt.wantType) {
				t.Fatalf("expected %s, got %v", tt.wantType, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("cause not preserved: %v", err)
			}
		})
	}
}

func TestAcquire_FetchTimeout(t *testing.T) {
	acquirer := NewImageAcquirer(blockingStore{storage.NewMemoryStorage("gs")}, 20*time.Millisecond)

	start := time.Now()
	_, err := acquirer.Acquire(context.Background(), FromReference("gs://bucket/slow.jpg"))
	if !apperrors.IsType(err, apperrors.ErrorTypeUpstreamTimeout) {
		t.Fatalf("expected upstream_timeout, got %v", err)
	}
	if apperrors.GetStatusCode(err) != 504 {
		t.Errorf("status = %d, want 504", apperrors.GetStatusCode(err))
	}
	if time.Since(start) > 2*time.Second {
		t.Error("fetch timeout was not enforced")
	}
}

func TestAcquire_NoStoreRejectsReferences(t *testing.T) {
	acquirer := NewImageAcquirer(nil, time.Second)
	_, err := acquirer.Acquire(context.Background(), FromReference("gs://bucket/a.jpg"))
	if !apperrors.IsType(err, apperrors.ErrorTypeUnsupportedSource) {
		t.Fatalf("expected unsupported_source, got %v", err)
	}
}
