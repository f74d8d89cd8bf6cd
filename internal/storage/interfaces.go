package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrObjectNotFound indicates the bucket or object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrPermissionDenied indicates the credentials may not access the object.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrObjectTooLarge indicates the object exceeds MaxObjectBytes.
	ErrObjectTooLarge = errors.New("object too large")
)

// MaxObjectBytes bounds how much of an object Fetch will buffer.
const MaxObjectBytes = 64 << 20

// ObjectStore is the object-storage collaborator. Each backend owns exactly
// one reference scheme.
type ObjectStore interface {
	Scheme() string
	Fetch(ctx context.Context, bucket, object string) ([]byte, error)
	Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, object string) error
	SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)
}

// readAllLimited drains r, failing once more than MaxObjectBytes arrive.
func readAllLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, MaxObjectBytes)
	}
	return data, nil
}
