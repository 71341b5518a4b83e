package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "without wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
			},
			want: "TEST_ERROR: something went wrong",
		},
		{
			name: "with wrapped error",
			err: &APIError{
				Code:    "TEST_ERROR",
				Message: "something went wrong",
				Err:     errors.New("underlying cause"),
			},
			want: "TEST_ERROR: something went wrong (underlying cause)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		sentinel   error
		wantCode   string
		wantStatus int
	}{
		{"auth", NewAuthError("no token"), ErrAuth, "AUTH_REQUIRED", 401},
		{"validation", NewValidationError("quantity", "must be positive"), ErrValidation, "VALIDATION_ERROR", 400},
		{"not found", NewNotFoundError("cart item"), ErrNotFound, "NOT_FOUND", 404},
		{"network", NewNetworkError("jewelry API", errors.New("connection refused")), ErrNetwork, "NETWORK_ERROR", 502},
		{"server", NewServerError("jewelry API", 500, "boom"), ErrServer, "SERVER_ERROR", 502},
		{"timeout", NewTimeoutError("jewelry API"), ErrTimeout, "TIMEOUT", 504},
		{"rate limited", NewRateLimitError("jewelry API"), ErrRateLimited, "RATE_LIMITED", 429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
		})
	}
}

func TestTimeoutIsNotNetwork(t *testing.T) {
	err := NewTimeoutError("jewelry API")
	if errors.Is(err, ErrNetwork) {
		t.Error("timeout must be distinguishable from network failure")
	}
}

func TestErrorsIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("saving cart: %w", NewAuthError("expired"))

	if !errors.Is(wrapped, ErrAuth) {
		t.Error("wrapped auth error should match ErrAuth")
	}

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should find APIError")
	}
	if apiErr.StatusCode != 401 {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", NewNetworkError("api", errors.New("reset")), true},
		{"timeout", NewTimeoutError("api"), true},
		{"server", NewServerError("api", 503, ""), true},
		{"auth", NewAuthError("missing"), false},
		{"validation", NewValidationError("x", "y"), false},
		{"not found", NewNotFoundError("item"), false},
		{"plain", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth", NewAuthError("token expired"), "Please sign in to continue."},
		{"timeout", NewTimeoutError("api"), "The store is taking too long to respond. Please try again."},
		{"server", NewServerError("api", 500, "stack trace here"), "Something went wrong while saving your changes. Please try again."},
		{"not found keeps message", NewNotFoundError("cart item"), "cart item not found"},
		{"unknown", errors.New("pq: connection reset"), "An unexpected error occurred."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
