package store

import (
	"context"
	"log/slog"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// Wishlist is the local saved-for-later container for one page session.
// It mirrors Cart without quantities.
type Wishlist struct {
	list   *syncList[model.WishlistItem]
	remote adapter.WishlistRemote
}

// WishlistSnapshot is a consistent view of the wishlist for rendering.
type WishlistSnapshot struct {
	Loaded  bool                            `json:"loaded"`
	Entries []EntryView[model.WishlistItem] `json:"entries"`
}

// NewWishlist creates an empty wishlist bound to remote.
func NewWishlist(remote adapter.WishlistRemote, events *Broadcaster, logger *slog.Logger) *Wishlist {
	w := &Wishlist{remote: remote}
	w.list = newSyncList(listHooks[model.WishlistItem]{
		kind:   ListWishlist,
		idOf:   func(i model.WishlistItem) string { return i.ProductID },
		lines:  reconcile.WishlistLines,
		fetch:  remote.FetchWishlist,
		remove: remote.RemoveFromWishlist,
		merge:  mergeWishlistItem,
	}, events, logger)
	return w
}

// Load replaces the wishlist with the server's copy.
func (w *Wishlist) Load(ctx context.Context) error {
	return w.list.load(ctx)
}

// Add saves item. Saving a product that is already saved succeeds without a remote call.
func (w *Wishlist) Add(ctx context.Context, item model.WishlistItem) (model.WishlistItem, error) {
	if err := model.Validate(item); err != nil {
		return model.WishlistItem{}, err
	}
	build := func(current model.WishlistItem, exists bool) (model.WishlistItem, error) {
		if exists {
			return current, errUnchanged
		}
		return item, nil
	}
	call := func(ctx context.Context, next model.WishlistItem, _ bool) (*model.WishlistItem, error) {
		return w.remote.AddToWishlist(ctx, next.ProductID)
	}
	return w.list.upsert(ctx, "add", item.ProductID, build, call)
}

// Remove deletes a saved product. Unknown products fail with NotFoundError.
func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	return w.list.remove(ctx, "remove", productID, false)
}

// Items returns the visible entries in display order.
func (w *Wishlist) Items() []model.WishlistItem {
	return w.list.items()
}

// Get returns the visible entry for productID.
func (w *Wishlist) Get(productID string) (model.WishlistItem, bool) {
	return w.list.get(productID)
}

// Has reports whether productID is visible in the wishlist.
func (w *Wishlist) Has(productID string) bool {
	_, ok := w.list.get(productID)
	return ok
}

// Status reports the sync status of productID.
func (w *Wishlist) Status(productID string) (model.ItemStatus, bool) {
	return w.list.status(productID)
}

// Snapshot returns entries with statuses.
func (w *Wishlist) Snapshot() WishlistSnapshot {
	return WishlistSnapshot{Loaded: w.list.isLoaded(), Entries: w.list.views()}
}

// PendingCleanups lists products awaiting removal after a half-finished transfer.
func (w *Wishlist) PendingCleanups() []string {
	return w.list.pendingCleanups()
}

func mergeWishlistItem(local model.WishlistItem, canonical *model.WishlistItem) model.WishlistItem {
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
	if merged.Price.IsZero() && !local.Price.IsZero() {
		merged.Price = local.Price
	}
	if merged.OriginalPrice == nil {
		merged.OriginalPrice = local.OriginalPrice
	}
	return merged
}
