package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/session"
	"storefront/internal/store"
)

// stateResponse is both lists of a page session.
type stateResponse struct {
	Cart     store.CartSnapshot     `json:"cart"`
	Wishlist store.WishlistSnapshot `json:"wishlist"`
}

func sessionState(sess *store.Session) stateResponse {
	return stateResponse{Cart: sess.Cart.Snapshot(), Wishlist: sess.Wishlist.Snapshot()}
}

// handleLogin stores the {token, userId} pair the login page received and
// loads both lists with it. A failed load is reported through the list
// events and does not undo the login.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	info, err := clientInfo(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var creds session.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := session.Login(r.Context(), h.credentials, info.SessionID, creds); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := h.sessions.Get(info.SessionID)
	if err := sess.Load(r.Context()); err != nil {
		h.logger.Warn("initial load after login failed",
			slog.String("user_id", creds.UserID),
			slog.String("error", err.Error()),
		)
	}
	h.writeJSON(w, http.StatusOK, sessionState(sess))
}

// handleLogout forgets the credentials and the in-memory lists.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	info, err := clientInfo(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.credentials.Delete(r.Context(), info.SessionID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.sessions.Drop(info.SessionID)
	w.WriteHeader(http.StatusNoContent)
}
