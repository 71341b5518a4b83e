package remote

import (
	"encoding/json"
	"net/http"
	"strings"

	"storefront/internal/model"
)

// errorBody is the backend's error envelope. Older routes use "error",
// newer ones "message"; both are tried.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// maxRawMessage caps how much of a non-JSON error body becomes the message.
const maxRawMessage = 200

// parseError converts a non-2xx backend response to model.APIError.
func parseError(status int, body []byte, resource string) error {
	msg := errorMessage(body)
	if resource == "" {
		resource = "resource"
	}

	switch {
	case status == http.StatusUnauthorized:
		if msg == "" {
			msg = "session expired"
		}
		return model.NewAuthError(msg)
	case status == http.StatusForbidden:
		if msg == "" {
			msg = "access denied"
		}
		return model.NewAuthError(msg)
	case status == http.StatusNotFound:
		return model.NewNotFoundError(resource)
	case status == http.StatusTooManyRequests:
		return model.NewRateLimitError(serviceName)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	default:
		return model.NewServerError(serviceName, status, msg)
	}
}

// errorMessage pulls the message out of the envelope. Bodies that are not
// JSON (proxy pages, plain text) are used as is, trimmed and capped.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		raw := strings.TrimSpace(string(body))
		if len(raw) > maxRawMessage {
			raw = strings.ToValidUTF8(raw[:maxRawMessage], "") + "..."
		}
		return raw
	}
	if msg := strings.TrimSpace(eb.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(eb.Error)
}
