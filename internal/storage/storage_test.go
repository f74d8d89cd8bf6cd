package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	gcs "cloud.google.com/go/storage"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage("mem")

	require.NoError(t, store.Upload(ctx, "bucket", "images/a.jpg", []byte("jpeg"), "image/jpeg"))

	data, err := store.Fetch(ctx, "bucket", "images/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, "image/jpeg", store.ContentType("bucket", "images/a.jpg"))

	url, err := store.SignedURL(ctx, "bucket", "images/a.jpg", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://storage.local/bucket/images/a.jpg?expires="))

	require.NoError(t, store.Delete(ctx, "bucket", "images/a.jpg"))
	_, err = store.Fetch(ctx, "bucket", "images/a.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "bucket", "images/a.jpg"), ErrObjectNotFound)
}

func TestMemoryStorage_FetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage("mem")
	require.NoError(t, store.Upload(ctx, "b", "o", []byte("abc"), "text/plain"))

	data, err := store.Fetch(ctx, "b", "o")
	require.NoError(t, err)
	data[0] = 'z'

	again, err := store.Fetch(ctx, "b", "o")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStorage("mem").Fetch(ctx, "b", "o")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadAllLimited(t *testing.T) {
	data, err := readAllLimited(bytes.NewReader(make([]byte, 10)))
	require.NoError(t, err)
	assert.Len(t, data, 10)

	_, err = readAllLimited(bytes.NewReader(make([]byte, MaxObjectBytes+1)))
	assert.ErrorIs(t, err, ErrObjectTooLarge)
}

func TestMapGCSError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"object missing", gcs.ErrObjectNotExist, ErrObjectNotFound},
		{"bucket missing", gcs.ErrBucketNotExist, ErrObjectNotFound},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden, Message: "denied"}, ErrPermissionDenied},
		{"api not found", &googleapi.Error{Code: http.StatusNotFound}, ErrObjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapGCSError(tt.err, "b", "o"), tt.want)
		})
	}

	other := errors.New("connection reset")
	mapped := mapGCSError(other, "b", "o")
	assert.ErrorIs(t, mapped, other)
	assert.NotErrorIs(t, mapped, ErrObjectNotFound)
}

func TestMapS3Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &s3types.NoSuchKey{}, ErrObjectNotFound},
		{"no such bucket", fmt.Errorf("wrapped: %w", &s3types.NoSuchBucket{}), ErrObjectNotFound},
		{"head not found", &smithy.GenericAPIError{Code: "NotFound"}, ErrObjectNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}, ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapS3Error(tt.err, "b", "o"), tt.want)
		})
	}

	throttled := &smithy.GenericAPIError{Code: "SlowDown"}
	mapped := mapS3Error(throttled, "b", "o")
	assert.NotErrorIs(t, mapped, ErrObjectNotFound)
	assert.NotErrorIs(t, mapped, ErrPermissionDenied)
}

func TestStorageSchemes(t *testing.T) {
	assert.Equal(t, "gs", (&gcsStorage{}).Scheme())
	assert.Equal(t, "s3", (&s3Storage{}).Scheme())
	assert.Equal(t, "az", (&azureStorage{}).Scheme())
	assert.Equal(t, "mem", NewMemoryStorage("mem").Scheme())
}
