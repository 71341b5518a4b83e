// Package store holds the per-session cart and wishlist containers.
//
// Each container applies mutations optimistically, reconciles them with the
// jewelry API, and rolls back exactly on failure. Every entry carries an
// explicit status (confirmed, pending-upsert, pending-delete) and every state
// change is published as an Event.
package store

import (
	"context"
	"log/slog"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// Cart is the local cart container for one page session.
type Cart struct {
	list    *syncList[model.CartLineItem]
	remote  adapter.CartRemote
	pricing model.Pricing
}

// CartSnapshot is a consistent view of the cart for rendering.
type CartSnapshot struct {
	Loaded  bool                            `json:"loaded"`
	Entries []EntryView[model.CartLineItem] `json:"entries"`
	Totals  model.Totals                    `json:"totals"`
}

// NewCart creates an empty cart bound to remote.
func NewCart(remote adapter.CartRemote, pricing model.Pricing, events *Broadcaster, logger *slog.Logger) *Cart {
	c := &Cart{remote: remote, pricing: pricing}
	c.list = newSyncList(listHooks[model.CartLineItem]{
		kind:   ListCart,
		idOf:   func(i model.CartLineItem) string { return i.ProductID },
		lines:  reconcile.CartLines,
		fetch:  remote.FetchCart,
		remove: remote.RemoveCartItem,
		merge:  mergeCartItem,
	}, events, logger)
	return c
}

// Load replaces the cart with the server's copy. On failure the cart is unchanged.
func (c *Cart) Load(ctx context.Context) error {
	return c.list.load(ctx)
}

// Add puts item in the cart. A product already present has its quantity
// increased by item.Quantity; a zero quantity means one.
func (c *Cart) Add(ctx context.Context, item model.CartLineItem) (model.CartLineItem, error) {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity < 0 {
		return model.CartLineItem{}, model.NewValidationError("quantity", "must be positive")
	}
	if err := model.Validate(item); err != nil {
		return model.CartLineItem{}, err
	}

	build := func(current model.CartLineItem, exists bool) (model.CartLineItem, error) {
		if !exists {
			return item, nil
		}
		current.Quantity += item.Quantity
		return current, nil
	}
	return c.list.upsert(ctx, "add", item.ProductID, build, c.write)
}

// SetQuantity changes the quantity of a product already in the cart.
// A quantity of zero or less removes it; removing an absent product is a no-op.
func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) (model.CartLineItem, error) {
	if productID == "" {
		return model.CartLineItem{}, model.NewValidationError("productId", "is required")
	}
	if quantity <= 0 {
		return model.CartLineItem{}, c.list.remove(ctx, "set_quantity", productID, true)
	}

	build := func(current model.CartLineItem, exists bool) (model.CartLineItem, error) {
		if !exists {
			return current, model.NewNotFoundError("cart item")
		}
		current.Quantity = quantity
		return current, nil
	}
	return c.list.upsert(ctx, "set_quantity", productID, build, c.write)
}

// Remove deletes a product from the cart. Unknown products fail with NotFoundError.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	return c.list.remove(ctx, "remove", productID, false)
}

func (c *Cart) write(ctx context.Context, next model.CartLineItem, existed bool) (*model.CartLineItem, error) {
	return c.remote.AddOrUpdateCartItem(ctx, next.ProductID, next.Quantity, existed)
}

// Items returns the visible lines in display order.
func (c *Cart) Items() []model.CartLineItem {
	return c.list.items()
}

// Get returns the visible line for productID.
func (c *Cart) Get(productID string) (model.CartLineItem, bool) {
	return c.list.get(productID)
}

// Has reports whether productID is visible in the cart.
func (c *Cart) Has(productID string) bool {
	_, ok := c.list.get(productID)
	return ok
}

// Status reports the sync status of productID, including a hidden pending delete.
func (c *Cart) Status(productID string) (model.ItemStatus, bool) {
	return c.list.status(productID)
}

// Totals recomputes the money summary from the visible lines.
func (c *Cart) Totals() model.Totals {
	return c.pricing.ComputeTotals(c.list.items())
}

// Snapshot returns entries, statuses and totals computed from one read.
func (c *Cart) Snapshot() CartSnapshot {
	views := c.list.views()
	items := make([]model.CartLineItem, len(views))
	for i, v := range views {
		items[i] = v.Item
	}
	return CartSnapshot{
		Loaded:  c.list.isLoaded(),
		Entries: views,
		Totals:  c.pricing.ComputeTotals(items),
	}
}

// PendingCleanups lists products awaiting removal after a half-finished transfer.
func (c *Cart) PendingCleanups() []string {
	return c.list.pendingCleanups()
}

// mergeCartItem trusts the server for price, stock and quantity and keeps
// local display fields the server left blank.
func mergeCartItem(local model.CartLineItem, canonical *model.CartLineItem) model.CartLineItem {
	if canonical == nil {
		return local
	}
	merged := *canonical
	merged.ProductID = local.ProductID
	if merged.Name == "" {
		merged.Name = local.Name
	}
	if merged.Image == "" {
		merged.Image = local.Image
	}
	if merged.Quantity <= 0 {
		merged.Quantity = local.Quantity
	}
	if merged.Price.IsZero() && !local.Price.IsZero() {
		merged.Price = local.Price
	}
	if merged.OriginalPrice == nil {
		merged.OriginalPrice = local.OriginalPrice
	}
	return merged
}
