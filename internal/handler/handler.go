// Package handler exposes the page session containers over HTTP: a JSON API
// for the storefront UI, an SSE stream of container events, and MCP tools.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/adapter"
	"storefront/internal/clientinfo"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/store"
)

// loginPath is where the UI sends shoppers whose token is missing or expired.
const loginPath = "/login"

// CatalogFactory returns a catalog client acting for sessionID.
type CatalogFactory func(sessionID string) adapter.Catalog

// Options wires a Handler.
type Options struct {
	Sessions      *store.Registry
	Credentials   session.Store
	Catalog       CatalogFactory
	GoogleAuthURL string
	// Ready reports whether dependencies (token store, backend) are usable.
	// Nil means always ready.
	Ready            func(ctx context.Context) error
	MinClientVersion string
	Logger           *slog.Logger
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sessions         *store.Registry
	credentials      session.Store
	catalog          CatalogFactory
	googleAuthURL    string
	ready            func(ctx context.Context) error
	minClientVersion string
	heartbeat        time.Duration
	logger           *slog.Logger
}

// New creates a Handler.
func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:         opts.Sessions,
		credentials:      opts.Credentials,
		catalog:          opts.Catalog,
		googleAuthURL:    opts.GoogleAuthURL,
		ready:            opts.Ready,
		minClientVersion: opts.MinClientVersion,
		heartbeat:        defaultHeartbeat,
		logger:           logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Operational endpoints
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /auth/google", h.handleGoogleAuth)

	// Credentials left behind by the login page
	mux.HandleFunc("PUT /api/session/credentials", h.handleLogin)
	mux.HandleFunc("DELETE /api/session/credentials", h.handleLogout)

	// Cart
	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddToCart)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.handleSetCartQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handleRemoveFromCart)
	mux.HandleFunc("POST /api/cart/items/{id}/move-to-wishlist", h.handleMoveToWishlist)

	// Wishlist
	mux.HandleFunc("GET /api/wishlist", h.handleGetWishlist)
	mux.HandleFunc("POST /api/wishlist/items", h.handleAddToWishlist)
	mux.HandleFunc("DELETE /api/wishlist/items/{id}", h.handleRemoveFromWishlist)
	mux.HandleFunc("POST /api/wishlist/items/{id}/move-to-cart", h.handleMoveToCart)

	mux.HandleFunc("GET /api/events", h.handleEvents)

	// Public catalog
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /api/categories", h.handleListCategories)

	// Admin console
	mux.HandleFunc("POST /api/admin/products", h.handleCreateProduct)
	mux.HandleFunc("PUT /api/admin/products/{id}", h.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.handleDeleteProduct)
	mux.HandleFunc("POST /api/admin/categories", h.handleCreateCategory)
	mux.HandleFunc("PUT /api/admin/categories/{id}", h.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/admin/categories/{id}", h.handleDeleteCategory)
	mux.HandleFunc("POST /api/admin/ai/description", h.handleGenerateDescription)
	mux.HandleFunc("GET /api/admin/orders", h.handleListOrders)
	mux.HandleFunc("PUT /api/admin/orders/{id}/status", h.handleUpdateOrderStatus)
	mux.HandleFunc("GET /api/admin/customers", h.handleListCustomers)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())
}

// === Session lookup ===

// clientInfo returns the identity the clientinfo middleware attached.
func clientInfo(r *http.Request) (clientinfo.Info, error) {
	info, ok := clientinfo.FromContext(r.Context())
	if !ok {
		return clientinfo.Info{}, model.NewValidationError(clientinfo.HeaderName, "header is required")
	}
	return info, nil
}

// session returns the page session for the request, creating it on first use.
func (h *Handler) session(r *http.Request) (*store.Session, error) {
	info, err := clientInfo(r)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(info.SessionID), nil
}

// loadedSession is session plus a first load of any list never fetched.
// Mutating an unloaded cart would guess wrong between create and update.
func (h *Handler) loadedSession(r *http.Request) (*store.Session, error) {
	sess, err := h.session(r)
	if err != nil {
		return nil, err
	}
	if err := sess.EnsureLoaded(r.Context()); err != nil {
		return nil, err
	}
	return sess, nil
}

// catalogFor returns the catalog client bound to the request's session.
func (h *Handler) catalogFor(r *http.Request) (adapter.Catalog, error) {
	info, err := clientInfo(r)
	if err != nil {
		return nil, err
	}
	return h.catalog(info.SessionID), nil
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Auth failures carry a redirect so the UI can send the shopper to the login page.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := h.apiError(r.Context(), err)
	body := errorBody{
		Code:    apiErr.Code,
		Message: model.UserMessage(apiErr),
	}
	if errors.Is(apiErr, model.ErrAuth) {
		body.Redirect = loginPath
	}
	h.writeJSON(w, apiErr.StatusCode, errorResponse{Error: body})
}

// apiError classifies err. Internal errors are logged; anything without an
// APIError in its chain is reported as one.
func (h *Handler) apiError(ctx context.Context, err error) *model.APIError {
	var apiErr *model.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= http.StatusInternalServerError && apiErr.Code == "INTERNAL_ERROR" {
			h.logger.Error("internal error",
				slog.String("error", apiErr.Error()),
				slog.String("request_id", middleware.RequestIDFromContext(ctx)),
			)
		}
		return apiErr
	case errors.Is(err, context.DeadlineExceeded):
		return model.NewTimeoutError("storefront")
	case errors.Is(err, context.Canceled):
		return &model.APIError{Code: "CANCELLED", Message: "request cancelled", StatusCode: 499, Err: err}
	}
	h.logger.Error("internal error",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(ctx)),
	)
	return model.NewInternalError(err)
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
