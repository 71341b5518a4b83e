package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/store"
)

type wishlistResponse struct {
	Item     *model.WishlistItem    `json:"item,omitempty"`
	Wishlist store.WishlistSnapshot `json:"wishlist"`
}

func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("reload") == "true" {
		err = sess.Wishlist.Load(r.Context())
	} else {
		err = sess.EnsureLoaded(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Wishlist.Snapshot())
}

// handleAddToWishlist saves a product. Saving it twice is not an error.
func (h *Handler) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	var item model.WishlistItem
	if err := decodeJSON(r, &item); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	saved, err := sess.Wishlist.Add(r.Context(), item)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wishlistResponse{Item: &saved, Wishlist: sess.Wishlist.Snapshot()})
}

func (h *Handler) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := sess.Wishlist.Remove(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wishlistResponse{Wishlist: sess.Wishlist.Snapshot()})
}

// handleMoveToCart puts a saved product in the cart with quantity one.
func (h *Handler) handleMoveToCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadedSession(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := sess.Transfer.MoveToCart(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionState(sess))
}
