// MCP transport for the storefront using the official MCP Go SDK.
// Exposes the cart and wishlist of a page session as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/clientinfo"
	"storefront/internal/model"
	"storefront/internal/store"
)

// === MCP Meta Types ===
// The Storefront-Client header maps to meta.storefront. Agents may send it
// in the tool arguments or in the request's _meta; arguments win.

// MCPMeta represents request metadata in MCP requests.
type MCPMeta struct {
	Storefront *StorefrontMeta `json:"storefront,omitempty" jsonschema:"page session to act on; may be sent in _meta instead"`
}

// StorefrontMeta names the page session and client build.
type StorefrontMeta struct {
	Session string `json:"session" jsonschema:"page session id"`
	Version string `json:"version,omitempty" jsonschema:"client build version (semver)"`
}

// === MCP Tool Input Types ===

// ListInput is the input schema for get_cart and get_wishlist.
type ListInput struct {
	Meta   MCPMeta `json:"meta,omitempty" jsonschema:"request metadata"`
	Reload bool    `json:"reload,omitempty" jsonschema:"refetch from the server even if already loaded"`
}

// ProductInput names one product, for removals and moves.
type ProductInput struct {
	Meta      MCPMeta `json:"meta,omitempty" jsonschema:"request metadata"`
	ProductID string  `json:"productId" jsonschema:"catalog product id"`
}

// AddToCartInput is the input schema for add_to_cart.
type AddToCartInput struct {
	Meta      MCPMeta `json:"meta,omitempty" jsonschema:"request metadata"`
	ProductID string  `json:"productId" jsonschema:"catalog product id"`
	Quantity  int     `json:"quantity,omitempty" jsonschema:"units to add; defaults to 1"`
}

// SetQuantityInput is the input schema for set_cart_quantity.
type SetQuantityInput struct {
	Meta      MCPMeta `json:"meta,omitempty" jsonschema:"request metadata"`
	ProductID string  `json:"productId" jsonschema:"catalog product id"`
	Quantity  int     `json:"quantity" jsonschema:"new quantity; 0 removes the line"`
}

// === MCP Tool Output Types ===
// Money is rendered as decimal strings so the inferred schemas stay plain.

// LineView is one cart line or wishlist entry.
type LineView struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	OriginalPrice string `json:"originalPrice,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	LineTotal     string `json:"lineTotal,omitempty"`
	InStock       bool   `json:"inStock"`
	Status        string `json:"status"`
}

// TotalsView is the cart money summary.
type TotalsView struct {
	ItemCount   int    `json:"itemCount"`
	Subtotal    string `json:"subtotal"`
	Savings     string `json:"savings"`
	ShippingFee string `json:"shippingFee"`
	Tax         string `json:"tax"`
	Total       string `json:"total"`
}

// CartView is the get_cart result.
type CartView struct {
	Loaded bool       `json:"loaded"`
	Items  []LineView `json:"items"`
	Totals TotalsView `json:"totals"`
}

// WishlistView is the get_wishlist result.
type WishlistView struct {
	Loaded bool       `json:"loaded"`
	Items  []LineView `json:"items"`
}

// StateView is both lists, returned by the move tools.
type StateView struct {
	Cart     CartView     `json:"cart"`
	Wishlist WishlistView `json:"wishlist"`
}

// NewMCPServer creates an MCP server with cart and wishlist tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Jewelry storefront - cart and wishlist of a shopper's page session. " +
				"Every call names the session in meta.storefront.session.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart lines, their sync status and the totals.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a catalog product to the cart. A product already in the cart has its quantity increased.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_cart_quantity",
		Description: "Set the quantity of a cart line. Zero removes it.",
	}, h.mcpSetCartQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a product from the cart.",
	}, h.mcpRemoveFromCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_wishlist",
		Description: "Get the saved products.",
	}, h.mcpGetWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_wishlist",
		Description: "Save a catalog product to the wishlist. Saving it twice is not an error.",
	}, h.mcpAddToWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_wishlist",
		Description: "Remove a saved product from the wishlist.",
	}, h.mcpRemoveFromWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_to_cart",
		Description: "Move a saved product into the cart with quantity one.",
	}, h.mcpMoveToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_to_wishlist",
		Description: "Move a cart line into the wishlist.",
	}, h.mcpMoveToWishlist)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *CartView, error) {
	sess, err := h.mcpSession(req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if input.Reload {
		err = sess.Cart.Load(ctx)
	} else {
		err = sess.EnsureLoaded(ctx)
	}
	if err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := cartView(sess.Cart.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpAddToCart(ctx context.Context, req *mcp.CallToolRequest, input AddToCartInput) (*mcp.CallToolResult, *CartView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if input.ProductID == "" {
		return nil, nil, h.mcpError(ctx, model.NewValidationError("productId", "is required"))
	}
	product, err := h.catalog(sess.ID).GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	if _, err := sess.Cart.Add(ctx, product.CartItem(input.Quantity)); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := cartView(sess.Cart.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpSetCartQuantity(ctx context.Context, req *mcp.CallToolRequest, input SetQuantityInput) (*mcp.CallToolResult, *CartView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if _, err := sess.Cart.SetQuantity(ctx, input.ProductID, input.Quantity); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := cartView(sess.Cart.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpRemoveFromCart(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (*mcp.CallToolResult, *CartView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Cart.Remove(ctx, input.ProductID); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := cartView(sess.Cart.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpGetWishlist(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *WishlistView, error) {
	sess, err := h.mcpSession(req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if input.Reload {
		err = sess.Wishlist.Load(ctx)
	} else {
		err = sess.EnsureLoaded(ctx)
	}
	if err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := wishlistView(sess.Wishlist.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpAddToWishlist(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (*mcp.CallToolResult, *WishlistView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if input.ProductID == "" {
		return nil, nil, h.mcpError(ctx, model.NewValidationError("productId", "is required"))
	}
	product, err := h.catalog(sess.ID).GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	if _, err := sess.Wishlist.Add(ctx, product.CartItem(1).ToWishlistItem()); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := wishlistView(sess.Wishlist.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpRemoveFromWishlist(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (*mcp.CallToolResult, *WishlistView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Wishlist.Remove(ctx, input.ProductID); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	view := wishlistView(sess.Wishlist.Snapshot())
	return nil, &view, nil
}

func (h *Handler) mcpMoveToCart(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (*mcp.CallToolResult, *StateView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if _, err := sess.Transfer.MoveToCart(ctx, input.ProductID); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	return nil, stateView(sess), nil
}

func (h *Handler) mcpMoveToWishlist(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (*mcp.CallToolResult, *StateView, error) {
	sess, err := h.mcpLoadedSession(ctx, req, input.Meta)
	if err != nil {
		return nil, nil, err
	}
	if _, err := sess.Transfer.MoveToWishlist(ctx, input.ProductID); err != nil {
		return nil, nil, h.mcpError(ctx, err)
	}
	return nil, stateView(sess), nil
}

// === Session resolution ===

// mcpSession resolves the page session named by the tool arguments or, failing
// that, by the request's _meta, and applies the client version gate.
func (h *Handler) mcpSession(req *mcp.CallToolRequest, meta MCPMeta) (*store.Session, error) {
	var raw map[string]any
	switch {
	case meta.Storefront != nil:
		raw = map[string]any{"storefront": map[string]any{
			"session": meta.Storefront.Session,
			"version": meta.Storefront.Version,
		}}
	case req != nil && req.Params != nil:
		raw = req.Params.GetMeta()
	}

	info, err := clientinfo.FromMCPMeta(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", clientinfo.CodeClientRequired, err)
	}
	if err := clientinfo.CheckVersion(h.minClientVersion, info.Version); err != nil {
		var verErr *clientinfo.VersionError
		if errors.As(err, &verErr) {
			return nil, fmt.Errorf("%s: %s", verErr.Code, verErr.Message)
		}
		return nil, err
	}
	return h.sessions.Get(info.SessionID), nil
}

func (h *Handler) mcpLoadedSession(ctx context.Context, req *mcp.CallToolRequest, meta MCPMeta) (*store.Session, error) {
	sess, err := h.mcpSession(req, meta)
	if err != nil {
		return nil, err
	}
	if err := sess.EnsureLoaded(ctx); err != nil {
		return nil, h.mcpError(ctx, err)
	}
	return sess, nil
}

// mcpError renders err as "<code>: <message>". Auth failures mention the
// login page so the agent can tell the shopper to sign in.
func (h *Handler) mcpError(ctx context.Context, err error) error {
	apiErr := h.apiError(ctx, err)
	if errors.Is(apiErr, model.ErrAuth) {
		return fmt.Errorf("%s: %s (sign in at %s)", apiErr.Code, model.UserMessage(apiErr), loginPath)
	}
	return fmt.Errorf("%s: %s", apiErr.Code, model.UserMessage(apiErr))
}

// === Views ===

func cartView(snap store.CartSnapshot) CartView {
	items := make([]LineView, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		items = append(items, LineView{
			ProductID:     e.Item.ProductID,
			Name:          e.Item.Name,
			Price:         model.FormatMoney(e.Item.Price),
			OriginalPrice: formatOptional(e.Item.OriginalPrice),
			Quantity:      e.Item.Quantity,
			LineTotal:     model.FormatMoney(e.Item.LineTotal()),
			InStock:       e.Item.InStock,
			Status:        string(e.Status),
		})
	}
	t := snap.Totals
	return CartView{
		Loaded: snap.Loaded,
		Items:  items,
		Totals: TotalsView{
			ItemCount:   t.ItemCount,
			Subtotal:    model.FormatMoney(t.Subtotal),
			Savings:     model.FormatMoney(t.Savings),
			ShippingFee: model.FormatMoney(t.ShippingFee),
			Tax:         model.FormatMoney(t.Tax),
			Total:       model.FormatMoney(t.Total),
		},
	}
}

func wishlistView(snap store.WishlistSnapshot) WishlistView {
	items := make([]LineView, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		items = append(items, LineView{
			ProductID:     e.Item.ProductID,
			Name:          e.Item.Name,
			Price:         model.FormatMoney(e.Item.Price),
			OriginalPrice: formatOptional(e.Item.OriginalPrice),
			InStock:       e.Item.InStock,
			Status:        string(e.Status),
		})
	}
	return WishlistView{Loaded: snap.Loaded, Items: items}
}

func stateView(sess *store.Session) *StateView {
	return &StateView{
		Cart:     cartView(sess.Cart.Snapshot()),
		Wishlist: wishlistView(sess.Wishlist.Snapshot()),
	}
}

func formatOptional(m *model.Money) string {
	if m == nil {
		return ""
	}
	return model.FormatMoney(*m)
}
