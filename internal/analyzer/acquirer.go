package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"github.com/anime-shed/image-discovery-go/internal/storage"
	"github.com/anime-shed/image-discovery-go/pkg/validation"
)

// SourceKind distinguishes uploads from storage references.
type SourceKind int

const (
	SourceUpload SourceKind = iota
	SourceReference
)

// ImageSource is either an uploaded byte stream or a storage reference URI.
type ImageSource struct {
	Kind SourceKind

	// Upload
	Body         io.Reader
	DeclaredMIME string

	// Reference
	URI string
}

// FromUpload wraps an uploaded stream. The declared MIME type is kept for
// logging only; classification never trusts it.
func FromUpload(body io.Reader, declaredMIME string) ImageSource {
	return ImageSource{Kind: SourceUpload, Body: body, DeclaredMIME: declaredMIME}
}

// FromReference wraps a scheme://bucket/object reference.
func FromReference(uri string) ImageSource {
	return ImageSource{Kind: SourceReference, URI: uri}
}

func (s ImageSource) String() string {
	if s.Kind == SourceReference {
		return "reference " + s.URI
	}
	return "upload"
}

type imageAcquirer struct {
	store        storage.ObjectStore
	validator    *validation.ReferenceValidator
	fetchTimeout time.Duration
}

// NewImageAcquirer accepts references only for the scheme of store. A nil
// store makes every reference an UnsupportedSource.
func NewImageAcquirer(store storage.ObjectStore, fetchTimeout time.Duration) ImageAcquirer {
	scheme := ""
	if store != nil {
		scheme = store.Scheme()
	}
	return &imageAcquirer{
		store:        store,
		validator:    validation.NewReferenceValidator(scheme),
		fetchTimeout: fetchTimeout,
	}
}

func (a *imageAcquirer) Acquire(ctx context.Context, source ImageSource) ([]byte, error) {
	switch source.Kind {
	case SourceUpload:
		return a.readUpload(source.Body)
	case SourceReference:
		return a.fetchReference(ctx, source.URI)
	default:
		return nil, apperrors.NewUnsupportedSourceError(fmt.Sprintf("unknown source kind %d", source.Kind), nil)
	}
}

func (a *imageAcquirer) readUpload(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, apperrors.NewEmptyInputError("upload is empty")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewFetchFailedError("failed to read upload", err)
	}
	if len(data) == 0 {
		return nil, apperrors.NewEmptyInputError("upload is empty")
	}
	return data, nil
}

func (a *imageAcquirer) fetchReference(ctx context.Context, uri string) ([]byte, error) {
	ref, err := a.validator.ParseReference(uri)
	if err != nil {
		return nil, err
	}

	fetchCtx := ctx
	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	data, err := a.store.Fetch(fetchCtx, ref.Bucket, ref.Object)
	if err != nil {
		return nil, mapFetchError(err, ref)
	}
	if len(data) == 0 {
		return nil, apperrors.NewEmptyInputError("referenced object is empty").WithDetails(ref.URI())
	}
	return data, nil
}

func mapFetchError(err error, ref validation.Reference) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUpstreamTimeoutError("storage fetch timed out", err).WithDetails(ref.URI())
	case errors.Is(err, storage.ErrObjectNotFound):
		return apperrors.NewFetchFailedError("referenced object not found", err).WithDetails(ref.URI())
	case errors.Is(err, storage.ErrPermissionDenied):
		return apperrors.NewFetchFailedError("permission denied for referenced object", err).WithDetails(ref.URI())
	default:
		return apperrors.NewFetchFailedError("failed to fetch referenced object", err).WithDetails(ref.URI())
	}
}
