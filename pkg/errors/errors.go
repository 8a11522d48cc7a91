package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Engine outcomes
	ErrorTypeGroundingMiss ErrorType = "GROUNDING_MISS"
	ErrorTypeNoPath        ErrorType = "NO_PATH"
	ErrorTypeValidation    ErrorType = "VALIDATION"

	// Caller errors
	ErrorTypeInvalidRequest ErrorType = "INVALID_REQUEST"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"

	// Infrastructure errors
	ErrorTypeNetwork  ErrorType = "NETWORK"
	ErrorTypeExternal ErrorType = "EXTERNAL"
	ErrorTypeCache    ErrorType = "CACHE"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
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

// WithDetails merges details into the error, overwriting existing keys
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewGroundingMiss reports a term that no grounding source could resolve.
// It is informational: searches continue with the raw name.
func NewGroundingMiss(term string) *AppError {
	return &AppError{
		Type:       ErrorTypeGroundingMiss,
		Message:    fmt.Sprintf("no grounding for '%s'", term),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]interface{}{"term": term},
	}
}

// NewNoPathError reports that every search tier was exhausted without a path.
func NewNoPathError(sources, targets []string) *AppError {
	return &AppError{
		Type: ErrorTypeNoPath,
		Message: fmt.Sprintf("no causal path found from [%s] to [%s]",
			strings.Join(sources, ", "), strings.Join(targets, ", ")),
		Code:       "NO_CAUSAL_PATH",
		HTTPStatus: http.StatusNotFound,
		Details: map[string]interface{}{
			"attempted_sources": sources,
			"attempted_targets": targets,
		},
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidRequestError creates an error for malformed caller input
func NewInvalidRequestError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		Code:       "INVALID_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    fmt.Sprintf("operation '%s' timed out", operation),
		Code:       "TIMEOUT",
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// NewUnavailableError creates a service unavailable error
func NewUnavailableError(service string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnavailable,
		Message:    fmt.Sprintf("service '%s' is unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewRateLimitedError creates a too-many-requests error
func NewRateLimitedError(retryAfter time.Duration) *AppError {
	err := &AppError{
		Type:       ErrorTypeRateLimited,
		Message:    "rate limit exceeded",
		Code:       "RATE_LIMITED",
		HTTPStatus: http.StatusTooManyRequests,
	}
	return err.WithDetails(map[string]interface{}{"retry_after_seconds": int(retryAfter.Seconds())})
}

// NewNetworkError creates a network error
func NewNetworkError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("external service '%s' error", service),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewCacheError creates a cache tier error
func NewCacheError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeCache,
		Message:    fmt.Sprintf("cache operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNoPath checks if an error reports an exhausted search
func IsNoPath(err error) bool {
	return IsType(err, ErrorTypeNoPath)
}

// IsUnavailable checks if an error is a service unavailable error
func IsUnavailable(err error) bool {
	return IsType(err, ErrorTypeUnavailable)
}

// HTTPStatus returns the status carried by an AppError, or 500.
func HTTPStatus(err error) int {
	if appErr := GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
