package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the storefront error taxonomy.
// Use errors.Is() to classify; APIError values unwrap to exactly one of these.
var (
	ErrAuth        = errors.New("authentication required")
	ErrValidation  = errors.New("validation failed")
	ErrNetwork     = errors.New("network error")
	ErrServer      = errors.New("server error")
	ErrNotFound    = errors.New("not found")
	ErrTimeout     = errors.New("request timed out")
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a 401 error for a missing, expired or rejected token.
// Callers at the UI boundary turn this into a redirect to the login page.
func NewAuthError(reason string) *APIError {
	return &APIError{
		Code:       "AUTH_REQUIRED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrAuth,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrValidation,
	}
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewNetworkError creates a 502 error for transport failures talking to the backend.
func NewNetworkError(service string, err error) *APIError {
	return &APIError{
		Code:       "NETWORK_ERROR",
		Message:    fmt.Sprintf("%s unreachable", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrNetwork, err),
	}
}

// NewServerError creates a 502 error for non-2xx backend responses.
func NewServerError(service string, status int, detail string) *APIError {
	msg := fmt.Sprintf("%s returned status %d", service, status)
	if detail != "" {
		msg += ": " + detail
	}
	return &APIError{
		Code:       "SERVER_ERROR",
		Message:    msg,
		StatusCode: 502,
		Err:        ErrServer,
	}
}

// NewTimeoutError creates a 504 error when a backend call exceeds its deadline.
// Kept separate from NewNetworkError so callers can tell a slow backend from a dead one.
func NewTimeoutError(service string) *APIError {
	return &APIError{
		Code:       "TIMEOUT",
		Message:    fmt.Sprintf("%s did not respond in time", service),
		StatusCode: 504,
		Err:        ErrTimeout,
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// IsTransient reports whether err is worth retrying: network, timeout and server errors.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrServer)
}

// UserMessage returns the text shown to shoppers for err.
// Unknown errors collapse into a generic message so internals never leak.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "Please sign in to continue."
	case errors.Is(err, ErrTimeout):
		return "The store is taking too long to respond. Please try again."
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrServer):
		return "Something went wrong while saving your changes. Please try again."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "An unexpected error occurred."
}
