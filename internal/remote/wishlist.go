package remote

import (
	"context"
	"net/http"

	"storefront/internal/model"
)

type wishlistAddRequest struct {
	ProductID string `json:"productId"`
}

// FetchWishlist returns the saved items as the server sees them.
func (c *Client) FetchWishlist(ctx context.Context) ([]model.WishlistItem, error) {
	req := request{op: "fetch_wishlist", method: http.MethodGet, path: "/wishlist/", resource: "wishlist"}
	out := newList[model.WishlistItem]("items")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	return out.Items(), nil
}

// AddToWishlist saves productID. Like AddOrUpdateCartItem, a nil item with a
// nil error means the server did not echo the entry.
func (c *Client) AddToWishlist(ctx context.Context, productID string) (*model.WishlistItem, error) {
	if productID == "" {
		return nil, model.NewValidationError("productId", "is required")
	}
	req, err := jsonRequest("add_wishlist_item", http.MethodPost, "/wishlist/add", wishlistAddRequest{ProductID: productID})
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	req.resource = "wishlist item"

	out := newOne[model.WishlistItem]("item")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	item := out.Value()
	if item == nil || item.ProductID == "" {
		return nil, nil
	}
	return item, nil
}

// RemoveFromWishlist deletes productID. A 404 counts as success.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	if productID == "" {
		return model.NewValidationError("productId", "is required")
	}
	req := request{
		op:            "remove_wishlist_item",
		method:        http.MethodDelete,
		path:          "/wishlist/remove/" + escape(productID),
		resource:      "wishlist item",
		notFoundIsNil: true,
	}
	return c.authorized(ctx, req, nil)
}
