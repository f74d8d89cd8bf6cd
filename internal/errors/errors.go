package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeTooLarge    ErrorType = "payload_too_large"

	// Analysis pipeline failures.
	ErrorTypeEmptyInput           ErrorType = "empty_input"
	ErrorTypeUnsupportedSource    ErrorType = "unsupported_source"
	ErrorTypeInvalidReference     ErrorType = "invalid_reference"
	ErrorTypeFetchFailed          ErrorType = "fetch_failed"
	ErrorTypeNotAnImage           ErrorType = "not_an_image"
	ErrorTypeDecodeFailed         ErrorType = "decode_failed"
	ErrorTypeUpstreamUnavailable  ErrorType = "upstream_unavailable"
	ErrorTypeUpstreamTimeout      ErrorType = "upstream_timeout"
	ErrorTypeUpstreamError        ErrorType = "upstream_error"
	ErrorTypeMalformedModelOutput ErrorType = "malformed_model_output"
	ErrorTypeMissingRequiredField ErrorType = "missing_required_field"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:           http.StatusBadRequest,
	ErrorTypeNetwork:              http.StatusBadGateway,
	ErrorTypeTimeout:              http.StatusGatewayTimeout,
	ErrorTypeNotFound:             http.StatusNotFound,
	ErrorTypeInternal:             http.StatusInternalServerError,
	ErrorTypeUnavailable:          http.StatusServiceUnavailable,
	ErrorTypeRateLimited:          http.StatusTooManyRequests,
	ErrorTypeTooLarge:             http.StatusRequestEntityTooLarge,
	ErrorTypeEmptyInput:           http.StatusBadRequest,
	ErrorTypeUnsupportedSource:    http.StatusBadRequest,
	ErrorTypeInvalidReference:     http.StatusBadRequest,
	ErrorTypeFetchFailed:          http.StatusBadRequest,
	ErrorTypeNotAnImage:           http.StatusBadRequest,
	ErrorTypeDecodeFailed:         http.StatusInternalServerError,
	ErrorTypeUpstreamUnavailable:  http.StatusBadGateway,
	ErrorTypeUpstreamTimeout:      http.StatusGatewayTimeout,
	ErrorTypeUpstreamError:        http.StatusBadGateway,
	ErrorTypeMalformedModelOutput: http.StatusBadGateway,
	ErrorTypeMissingRequiredField: http.StatusBadGateway,
}

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New builds an AppError of the given type with its mapped status code.
func New(errorType ErrorType, message string, cause error) *AppError {
	status, ok := statusByType[errorType]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Type:       errorType,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// WithDetails returns the error with Details set.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return New(ErrorTypeValidation, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return New(ErrorTypeNetwork, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return New(ErrorTypeTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return New(ErrorTypeInternal, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return New(ErrorTypeNotFound, message, cause)
}

// NewUnavailableError reports a collaborator that was never configured.
func NewUnavailableError(message string, cause error) *AppError {
	return New(ErrorTypeUnavailable, message, cause)
}

func NewRateLimitedError(message string) *AppError {
	return New(ErrorTypeRateLimited, message, nil)
}

func NewTooLargeError(message string, cause error) *AppError {
	return New(ErrorTypeTooLarge, message, cause)
}

func NewEmptyInputError(message string) *AppError {
	return New(ErrorTypeEmptyInput, message, nil)
}

func NewUnsupportedSourceError(message string, cause error) *AppError {
	return New(ErrorTypeUnsupportedSource, message, cause)
}

func NewInvalidReferenceError(message string, cause error) *AppError {
	return New(ErrorTypeInvalidReference, message, cause)
}

func NewFetchFailedError(message string, cause error) *AppError {
	return New(ErrorTypeFetchFailed, message, cause)
}

func NewNotAnImageError(mimeType string) *AppError {
	return New(ErrorTypeNotAnImage, "content is not an image", nil).WithDetails(mimeType)
}

func NewDecodeFailedError(cause error) *AppError {
	return New(ErrorTypeDecodeFailed, "image could not be decoded", cause)
}

func NewUpstreamUnavailableError(message string, cause error) *AppError {
	return New(ErrorTypeUpstreamUnavailable, message, cause)
}

func NewUpstreamTimeoutError(message string, cause error) *AppError {
	return New(ErrorTypeUpstreamTimeout, message, cause)
}

func NewUpstreamError(message string, cause error) *AppError {
	return New(ErrorTypeUpstreamError, message, cause)
}

func NewMalformedModelOutputError(cause error) *AppError {
	return New(ErrorTypeMalformedModelOutput, "model output is not a JSON object", cause)
}

// NewMissingRequiredFieldError names the offending field in Details.
func NewMissingRequiredFieldError(field string) *AppError {
	return New(ErrorTypeMissingRequiredField, fmt.Sprintf("model output field %q is missing or not a non-empty string", field), nil).
		WithDetails(field)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
