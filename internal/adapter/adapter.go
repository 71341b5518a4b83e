// Package adapter defines the interfaces the storefront uses to reach the jewelry API.
// State containers depend on these interfaces, never on the HTTP client directly.
package adapter

import (
	"context"

	"storefront/internal/model"
)

// CartRemote is the server-authoritative cart.
//
// All methods require a bearer token; implementations fail with an auth
// error before any network call when none is available.
type CartRemote interface {
	// FetchCart returns the full cart as the server sees it.
	FetchCart(ctx context.Context) ([]model.CartLineItem, error)

	// AddOrUpdateCartItem sets the absolute quantity for a product.
	// existing selects between the create (POST) and update (PUT) endpoints.
	// Returns the server's canonical line (price, stock flag, display fields).
	AddOrUpdateCartItem(ctx context.Context, productID string, quantity int, existing bool) (*model.CartLineItem, error)

	// RemoveCartItem deletes a product from the cart.
	// Idempotent: removing an absent product is not an error.
	RemoveCartItem(ctx context.Context, productID string) error
}

// WishlistRemote is the server-authoritative wishlist.
type WishlistRemote interface {
	FetchWishlist(ctx context.Context) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID string) (*model.WishlistItem, error)
	// RemoveFromWishlist is idempotent like RemoveCartItem.
	RemoveFromWishlist(ctx context.Context, productID string) error
}

// Remote combines both lists; one value usually backs a whole page session.
type Remote interface {
	CartRemote
	WishlistRemote
}

// Catalog covers the public listing endpoints and the admin back office.
// Reads are anonymous; every mutation requires a bearer token.
type Catalog interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateProduct(ctx context.Context, form *model.ProductForm) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, form *model.ProductForm) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, form *model.CategoryForm) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, form *model.CategoryForm) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	GenerateDescription(ctx context.Context, req *model.DescriptionRequest) (*model.DescriptionResponse, error)

	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, update *model.OrderStatusUpdate) (*model.Order, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
}
