package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readyTimeout bounds the dependency checks behind /healthz.
const readyTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Error    string `json:"error,omitempty"`
}

// handleHealth is liveness: the process is up.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Sessions: h.sessions.Len()})
}

// handleReady is readiness: the token store and backend are usable.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.String("error", err.Error()))
			h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Sessions: h.sessions.Len()})
}

// handleGoogleAuth sends the browser to the backend's Google sign-in.
// The backend owns the OAuth flow and redirects back to the login page with a token.
func (h *Handler) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleAuthURL == "" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, h.googleAuthURL, http.StatusFound)
}
