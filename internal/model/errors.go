package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"google.golang.org/genai"
)

// FailureKind buckets provider failures.
type FailureKind int

const (
	// FailureRejected covers every provider-reported error that is not a timeout or outage.
	FailureRejected FailureKind = iota
	FailureUnavailable
	FailureTimeout
	// FailureCanceled means the caller gave up; the provider never answered.
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnavailable:
		return "unavailable"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	default:
		return "rejected"
	}
}

// ProviderError is a classified provider failure.
type ProviderError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Classify maps any error returned by a provider call onto a ProviderError.
func Classify(err error) *ProviderError {
	if err == nil {
		return nil
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: FailureTimeout, Message: "deadline exceeded", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: FailureCanceled, Message: "request canceled", Cause: err}
	}

	if apiErr, ok := asAPIError(err); ok {
		return classifyAPIError(apiErr, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &ProviderError{Kind: FailureTimeout, Message: netErr.Error(), Cause: err}
		}
		return &ProviderError{Kind: FailureUnavailable, Message: netErr.Error(), Cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ProviderError{Kind: FailureUnavailable, Message: urlErr.Error(), Cause: err}
	}

	return &ProviderError{Kind: FailureRejected, Message: err.Error(), Cause: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

func classifyAPIError(apiErr genai.APIError, cause error) *ProviderError {
	out := &ProviderError{
		Kind:       FailureRejected,
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
		Cause:      cause,
	}
	if out.Message == "" {
		out.Message = apiErr.Status
	}

	switch {
	case apiErr.Code == http.StatusGatewayTimeout || apiErr.Status == "DEADLINE_EXCEEDED":
		out.Kind = FailureTimeout
	case apiErr.Code == http.StatusServiceUnavailable || apiErr.Status == "UNAVAILABLE":
		out.Kind = FailureUnavailable
	}
	return out
}
