package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront/internal/model"
)

var compensationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_transfer_compensations_total",
		Help: "Transfers whose source removal needed a retry or a deferred cleanup",
	},
	[]string{"outcome"},
)

// Transfer moves products between the cart and the wishlist.
//
// A move is two remote calls: add to the destination, then remove from the
// source. If the removal fails it is retried once; if that fails too the
// product is scheduled for cleanup on the source's next successful Load,
// which removes it only if the server lists it in the source while the
// destination still holds it.
type Transfer struct {
	cart     *Cart
	wishlist *Wishlist
	logger   *slog.Logger
}

// NewTransfer links a cart and wishlist of the same session.
func NewTransfer(cart *Cart, wishlist *Wishlist, logger *slog.Logger) *Transfer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transfer{cart: cart, wishlist: wishlist, logger: logger}
}

// MoveToCart adds a saved product to the cart with quantity one and removes
// it from the wishlist.
func (t *Transfer) MoveToCart(ctx context.Context, productID string) (model.CartLineItem, error) {
	saved, ok := t.wishlist.Get(productID)
	if !ok {
		return model.CartLineItem{}, model.NewNotFoundError("wishlist item")
	}
	added, err := t.cart.Add(ctx, saved.ToCartItem(1))
	if err != nil {
		return model.CartLineItem{}, err
	}
	if err := t.removeFromSource(ctx, t.wishlist.list, productID, t.cart.Has); err != nil {
		return added, err
	}
	return added, nil
}

// MoveToWishlist saves a cart product and removes the line from the cart.
func (t *Transfer) MoveToWishlist(ctx context.Context, productID string) (model.WishlistItem, error) {
	line, ok := t.cart.Get(productID)
	if !ok {
		return model.WishlistItem{}, model.NewNotFoundError("cart item")
	}
	saved, err := t.wishlist.Add(ctx, line.ToWishlistItem())
	if err != nil {
		return model.WishlistItem{}, err
	}
	if err := t.removeFromSource(ctx, t.cart.list, productID, t.wishlist.Has); err != nil {
		return saved, err
	}
	return saved, nil
}

// source is the part of a syncList a transfer needs.
type source interface {
	remove(ctx context.Context, op, id string, missingOK bool) error
	scheduleCleanup(id string, stillElsewhere func(string) bool)
}

func (t *Transfer) removeFromSource(ctx context.Context, src source, productID string, inDestination func(string) bool) error {
	err := src.remove(ctx, "transfer", productID, true)
	if err == nil {
		return nil
	}
	if model.IsTransient(err) && ctx.Err() == nil {
		retryErr := src.remove(ctx, "transfer_retry", productID, true)
		if retryErr == nil {
			compensationsTotal.WithLabelValues("retried").Inc()
			return nil
		}
		err = retryErr
	}

	src.scheduleCleanup(productID, inDestination)
	compensationsTotal.WithLabelValues("deferred").Inc()
	t.logger.Warn("transfer left product in both lists, cleanup deferred to next load",
		slog.String("product_id", productID),
		slog.Any("error", err),
	)
	if errors.Is(err, model.ErrAuth) {
		return err
	}
	return fmt.Errorf("product %s was added but could not be removed from its previous list: %w", productID, err)
}

var (
	_ source = (*syncList[model.CartLineItem])(nil)
	_ source = (*syncList[model.WishlistItem])(nil)
)
