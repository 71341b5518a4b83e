package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/store"
)

// cartResponse is returned by every cart mutation: the affected line, when
// one remains, and the whole cart with fresh totals.
type cartResponse struct {
	Item *model.CartLineItem `json:"item,omitempty"`
	Cart store.CartSnapshot  `json:"cart"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// handleGetCart returns the cart. ?reload=true refetches from the server
// even when the cart is already loaded.
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("reload") == "true" {
		err = sess.Cart.Load(r.Context())
	} else {
		err = sess.EnsureLoaded(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// handleAddToCart adds a product snapshot; an existing line has its quantity increased.
func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var item model.CartLineItem
	if err := decodeJSON(r, &item); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	line, err := sess.Cart.Add(r.Context(), item)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cartResponse{Item: &line, Cart: sess.Cart.Snapshot()})
}

// handleSetCartQuantity sets an absolute quantity. Zero removes the line.
func (h *Handler) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, r, model.NewValidationError("quantity", "is required"))
		return
	}
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	line, err := sess.Cart.SetQuantity(r.Context(), r.PathValue("id"), *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := cartResponse{Cart: sess.Cart.Snapshot()}
	if *req.Quantity > 0 {
		resp.Item = &line
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := sess.Cart.Remove(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cartResponse{Cart: sess.Cart.Snapshot()})
}

// handleMoveToWishlist saves a cart line and removes it from the cart.
func (h *Handler) handleMoveToWishlist(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := sess.Transfer.MoveToWishlist(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionState(sess))
}
