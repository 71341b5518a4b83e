package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// TokenSource yields the bearer token for the current session.
// An empty token with a nil error means the shopper is signed out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, used by the CLI and tests.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client is one session's view of the jewelry API.
// It implements adapter.Remote and adapter.Catalog.
type Client struct {
	backend *Backend
	tokens  TokenSource
}

var (
	_ adapter.Remote  = (*Client)(nil)
	_ adapter.Catalog = (*Client)(nil)
)

// authorize resolves the bearer token or fails before any network call.
// Only a missing or expired token is an auth error; a token source that
// cannot answer (e.g. the credential store is down) is an internal error.
func (c *Client) authorize(ctx context.Context, req *request) error {
	if c.tokens == nil {
		return model.NewAuthError("not signed in")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return err
		}
		return model.NewInternalError(fmt.Errorf("resolve session token: %w", err))
	}
	if token == "" {
		return model.NewAuthError("not signed in")
	}
	req.token = token
	return nil
}

// authorized sends req with the session token attached.
func (c *Client) authorized(ctx context.Context, req request, out any) error {
	if err := c.authorize(ctx, &req); err != nil {
		if errors.Is(err, model.ErrAuth) {
			authFailuresTotal.Inc()
		}
		return err
	}
	return c.backend.send(ctx, req, out)
}

// public sends req without credentials.
func (c *Client) public(ctx context.Context, req request, out any) error {
	return c.backend.send(ctx, req, out)
}

// escape makes an id safe for a single path segment.
func escape(id string) string {
	return url.PathEscape(id)
}
