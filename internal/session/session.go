// Package session persists shopper credentials between requests and hands
// the current bearer token to the remote client.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/model"
)

// Credentials is what the login flow leaves behind for a browser session.
type Credentials struct {
	Token  string `json:"token" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// Store keeps credentials keyed by session id.
// Get returns a not-found error for unknown or expired sessions.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Credentials, error)
	Set(ctx context.Context, sessionID string, creds Credentials) error
	Delete(ctx context.Context, sessionID string) error
}

func errNoCredentials() error {
	return model.NewNotFoundError("session credentials")
}

// CheckToken rejects tokens the backend would refuse anyway: empty ones and
// JWTs whose exp claim is in the past. The signature is not verified here;
// only the backend holds the key. Opaque (non-JWT) tokens pass through.
func CheckToken(token string, now time.Time) error {
	if token == "" {
		return model.NewAuthError("not signed in")
	}
	if strings.Count(token, ".") != 2 {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return model.NewAuthError("malformed session token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return model.NewAuthError("malformed session token")
	}
	if exp != nil && !now.Before(exp.Time) {
		return model.NewAuthError("session expired")
	}
	return nil
}

// Binding ties one session id to a Store. It satisfies remote.TokenSource.
type Binding struct {
	store     Store
	sessionID string
	now       func() time.Time
}

// Bind returns the token source for sessionID.
func Bind(store Store, sessionID string) *Binding {
	return &Binding{store: store, sessionID: sessionID, now: time.Now}
}

// SessionID returns the bound id.
func (b *Binding) SessionID() string {
	return b.sessionID
}

// Token returns the stored bearer token. A signed-out session yields "" and
// no error; an expired token yields an auth error.
func (b *Binding) Token(ctx context.Context) (string, error) {
	creds, err := b.store.Get(ctx, b.sessionID)
	if errors.Is(err, model.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := CheckToken(creds.Token, b.now()); err != nil {
		return "", err
	}
	return creds.Token, nil
}

// Login validates and stores credentials for sessionID.
func Login(ctx context.Context, store Store, sessionID string, creds Credentials) error {
	if sessionID == "" {
		return model.NewValidationError("session", "is required")
	}
	if err := model.Validate(creds); err != nil {
		return err
	}
	if err := CheckToken(creds.Token, time.Now()); err != nil {
		return err
	}
	return store.Set(ctx, sessionID, creds)
}
