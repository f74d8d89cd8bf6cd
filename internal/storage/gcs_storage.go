package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

type gcsStorage struct {
	client *gcs.Client
}

// NewGCSStorage uses application default credentials.
func NewGCSStorage(ctx context.Context) (ObjectStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &gcsStorage{client: client}, nil
}

func (s *gcsStorage) Scheme() string {
	return "gs"
}

func (s *gcsStorage) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, mapGCSError(err, bucket, object)
	}
	defer reader.Close()

	data, err := readAllLimited(reader)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

func (s *gcsStorage) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	writer := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return mapGCSError(err, bucket, object)
	}
	if err := writer.Close(); err != nil {
		return mapGCSError(err, bucket, object)
	}
	return nil
}

func (s *gcsStorage) Delete(ctx context.Context, bucket, object string) error {
	if err := s.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		return mapGCSError(err, bucket, object)
	}
	return nil
}

// SignedURL returns a V4 GET URL.
func (s *gcsStorage) SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(bucket).SignedURL(object, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign gs://%s/%s: %w", bucket, object, err)
	}
	return url, nil
}

func mapGCSError(err error, bucket, object string) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrObjectNotFound)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrObjectNotFound)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("gs://%s/%s: %w: %v", bucket, object, ErrPermissionDenied, apiErr.Message)
		}
	}
	return fmt.Errorf("gs://%s/%s: %w", bucket, object, err)
}
