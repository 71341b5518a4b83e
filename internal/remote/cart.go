package remote

import (
	"context"
	"net/http"

	"storefront/internal/model"
)

type cartAddRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// FetchCart returns the cart as the server sees it.
func (c *Client) FetchCart(ctx context.Context) ([]model.CartLineItem, error) {
	req := request{op: "fetch_cart", method: http.MethodGet, path: "/cart/", resource: "cart"}
	out := newList[model.CartLineItem]("items")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	return out.Items(), nil
}

// AddOrUpdateCartItem sets the absolute quantity of productID.
// New lines go to POST /cart/add, existing ones to PUT /cart/update/{id}.
// A nil line with a nil error means the server acknowledged without echoing
// the line back.
func (c *Client) AddOrUpdateCartItem(ctx context.Context, productID string, quantity int, existing bool) (*model.CartLineItem, error) {
	if productID == "" {
		return nil, model.NewValidationError("productId", "is required")
	}
	if quantity < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}

	var (
		req request
		err error
	)
	if existing {
		req, err = jsonRequest("update_cart_item", http.MethodPut, "/cart/update/"+escape(productID), cartUpdateRequest{Quantity: quantity})
	} else {
		req, err = jsonRequest("add_cart_item", http.MethodPost, "/cart/add", cartAddRequest{ProductID: productID, Quantity: quantity})
	}
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	req.resource = "cart item"

	out := newOne[model.CartLineItem]("item")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	item := out.Value()
	if item == nil || item.ProductID == "" {
		return nil, nil
	}
	return item, nil
}

// RemoveCartItem deletes productID from the cart. A 404 counts as success.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) error {
	if productID == "" {
		return model.NewValidationError("productId", "is required")
	}
	req := request{
		op:            "remove_cart_item",
		method:        http.MethodDelete,
		path:          "/cart/remove/" + escape(productID),
		resource:      "cart item",
		notFoundIsNil: true,
	}
	return c.authorized(ctx, req, nil)
}
