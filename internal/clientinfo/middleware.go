package clientinfo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const infoKey contextKey = "storefront.client"

// Middleware requires a valid Storefront-Client header on /api/ routes and
// stores the parsed Info in the request context. Other paths pass through.
//
// Missing or malformed header: 400. Version below minVersion: 426.
func Middleware(minVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(HeaderName)
			if header == "" {
				writeError(w, http.StatusBadRequest, CodeClientRequired,
					"Storefront-Client header is required")
				return
			}

			info, err := ParseHeader(header)
			if err != nil {
				logger.Warn("invalid Storefront-Client header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeError(w, http.StatusBadRequest, CodeClientRequired,
					"Invalid Storefront-Client header: "+err.Error())
				return
			}

			if err := CheckVersion(minVersion, info.Version); err != nil {
				var verErr *VersionError
				if errors.As(err, &verErr) {
					writeError(w, http.StatusUpgradeRequired, verErr.Code, verErr.Message)
					return
				}
				writeError(w, http.StatusBadRequest, CodeClientRequired, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = code
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext retrieves the client info stored by Middleware.
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey).(Info)
	return info, ok
}
