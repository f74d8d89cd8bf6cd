package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// MemoryStorage keeps objects in process memory. It backs local development
// and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	scheme  string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStorage creates an empty store that answers to scheme.
func NewMemoryStorage(scheme string) *MemoryStorage {
	return &MemoryStorage{scheme: scheme, objects: make(map[string]memoryObject)}
}

func (s *MemoryStorage) Scheme() string {
	return s.scheme
}

func (s *MemoryStorage) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[s.key(bucket, object)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.key(bucket, object), ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *MemoryStorage) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[s.key(bucket, object)] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, bucket, object string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(bucket, object)
	if _, ok := s.objects[k]; !ok {
		return fmt.Errorf("%s: %w", k, ErrObjectNotFound)
	}
	delete(s.objects, k)
	return nil
}

func (s *MemoryStorage) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	u := url.URL{
		Scheme:   "https",
		Host:     "storage.local",
		Path:     "/" + bucket + "/" + object,
		RawQuery: url.Values{"expires": {time.Now().Add(ttl).UTC().Format(time.RFC3339)}}.Encode(),
	}
	return u.String(), nil
}

// ContentType reports the stored content type, or "" when absent.
func (s *MemoryStorage) ContentType(bucket, object string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[s.key(bucket, object)].contentType
}

func (s *MemoryStorage) key(bucket, object string) string {
	return s.scheme + "://" + bucket + "/" + object
}

var _ ObjectStore = (*MemoryStorage)(nil)
