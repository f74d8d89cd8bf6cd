package validation

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
	"golang.org/x/text/unicode/norm"
)

// Reference is a parsed object-storage URI of the form scheme://bucket/object.
type Reference struct {
	Scheme string
	Bucket string
	Object string
}

// URI renders the reference back into its canonical string form.
func (r Reference) URI() string {
	return fmt.Sprintf("%s://%s/%s", r.Scheme, r.Bucket, r.Object)
}

// ReferenceValidator accepts storage references for exactly one scheme and,
// optionally, a fixed set of buckets.
type ReferenceValidator struct {
	allowedScheme  string
	allowedBuckets []string
}

// NewReferenceValidator creates a validator that accepts any bucket.
func NewReferenceValidator(scheme string) *ReferenceValidator {
	return &ReferenceValidator{
		allowedScheme:  strings.ToLower(scheme),
		allowedBuckets: []string{}, // empty means all buckets allowed
	}
}

// NewReferenceValidatorWithBuckets restricts references to the given buckets.
func NewReferenceValidatorWithBuckets(scheme string, buckets []string) *ReferenceValidator {
	return &ReferenceValidator{
		allowedScheme:  strings.ToLower(scheme),
		allowedBuckets: buckets,
	}
}

// Scheme returns the single accepted scheme.
func (v *ReferenceValidator) Scheme() string {
	return v.allowedScheme
}

// ParseReference validates a reference and resolves its bucket and object path.
// The object path is URL-decoded and NFC-normalized.
func (v *ReferenceValidator) ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, apperrors.NewInvalidReferenceError("reference cannot be empty", nil)
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return Reference{}, apperrors.NewUnsupportedSourceError("reference has no scheme", nil)
	}
	if !v.isSchemeAllowed(scheme) {
		return Reference{}, apperrors.NewUnsupportedSourceError(
			fmt.Sprintf("scheme %q is not accepted; use %s://bucket/object", strings.ToLower(scheme), v.allowedScheme), nil)
	}

	bucket, objectPath, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Reference{}, apperrors.NewInvalidReferenceError("reference must name a bucket", nil)
	}
	if !v.isBucketAllowed(bucket) {
		return Reference{}, apperrors.NewInvalidReferenceError(fmt.Sprintf("bucket %q is not allowed", bucket), nil)
	}

	decoded, err := url.PathUnescape(objectPath)
	if err != nil {
		return Reference{}, apperrors.NewInvalidReferenceError("object path is not valid percent-encoding", err)
	}
	decoded = norm.NFC.String(decoded)
	if decoded == "" || strings.HasSuffix(decoded, "/") {
		return Reference{}, apperrors.NewInvalidReferenceError("reference points to a prefix, not an object", nil)
	}

	return Reference{Scheme: v.allowedScheme, Bucket: bucket, Object: decoded}, nil
}

func (v *ReferenceValidator) isSchemeAllowed(scheme string) bool {
	return v.allowedScheme != "" && strings.EqualFold(scheme, v.allowedScheme)
}

// isBucketAllowed returns true if no bucket restrictions are set
func (v *ReferenceValidator) isBucketAllowed(bucket string) bool {
	if len(v.allowedBuckets) == 0 {
		return true
	}
	for _, allowed := range v.allowedBuckets {
		if bucket == allowed {
			return true
		}
	}
	return false
}
