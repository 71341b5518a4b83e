package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapter"
	"storefront/internal/clientinfo"
	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/store"
)

const testSession = "tab-1"

var testPricing = model.Pricing{
	FreeShippingThreshold: model.MustMoney("500"),
	FlatShippingFee:       model.MustMoney("50"),
	TaxRate:               model.MustMoney("0.03"),
}

// fixture is a Handler wired to in-memory doubles, served behind the
// clientinfo middleware as in production.
type fixture struct {
	remote   *adapter.Mock
	catalog  *adapter.CatalogMock
	creds    *session.MemoryStore
	registry *store.Registry
	handler  *Handler
	server   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		remote:  &adapter.Mock{},
		catalog: &adapter.CatalogMock{},
		creds:   session.NewMemoryStore(time.Hour),
	}
	f.registry = store.NewRegistry(func(string) adapter.Remote { return f.remote }, testPricing, 0, logger)
	t.Cleanup(f.registry.Close)

	f.handler = New(Options{
		Sessions:      f.registry,
		Credentials:   f.creds,
		Catalog:       func(string) adapter.Catalog { return f.catalog },
		GoogleAuthURL: "https://api.jewels.example/auth/google",
		Logger:        logger,
	})
	mux := http.NewServeMux()
	f.handler.RegisterRoutes(mux)
	f.server = clientinfo.Middleware("", logger)(mux)
	return f
}

// do sends a JSON request as the test page session.
func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(clientinfo.HeaderName, `session="`+testSession+`", version="1.0.0"`)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func ring(id, price string, qty int) model.CartLineItem {
	return model.CartLineItem{
		ProductID: id,
		Name:      "Ring " + id,
		Price:     model.MustMoney(price),
		Quantity:  qty,
		InStock:   true,
	}
}

func cartIDs(snap store.CartSnapshot) []string {
	ids := make([]string, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		ids = append(ids, e.Item.ProductID)
	}
	return ids
}

func wishlistIDs(snap store.WishlistSnapshot) []string {
	ids := make([]string, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		ids = append(ids, e.Item.ProductID)
	}
	return ids
}

// serveCart makes the mock return lines on every fetch.
func (f *fixture) serveCart(lines ...model.CartLineItem) {
	f.remote.FetchCartFunc = func(context.Context) ([]model.CartLineItem, error) {
		return append([]model.CartLineItem(nil), lines...), nil
	}
}

func TestHandleHealth(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[healthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      func(context.Context) error
		wantStatus int
	}{
		{"no checks", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"redis down", func(context.Context) error { return errors.New("dial tcp: refused") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.handler.ready = tt.ready

			w := httptest.NewRecorder()
			f.server.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGoogleAuthRedirect(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest("GET", "/auth/google", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://api.jewels.example/auth/google", w.Header().Get("Location"))

	f.handler.googleAuthURL = ""
	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest("GET", "/auth/google", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIRequiresClientHeader(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest("GET", "/api/cart", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, clientinfo.CodeClientRequired, resp.Error.Code)
	assert.Equal(t, 0, f.registry.Len())
}

func TestAuthErrorRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	f.remote.FetchCartFunc = func(context.Context) ([]model.CartLineItem, error) {
		return nil, model.NewAuthError("not signed in")
	}

	w := f.do("GET", "/api/cart", nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "AUTH_REQUIRED", resp.Error.Code)
	assert.Equal(t, "/login", resp.Error.Redirect)
	assert.Equal(t, "Please sign in to continue.", resp.Error.Message)
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	f.remote.FetchCartFunc = func(context.Context) ([]model.CartLineItem, error) {
		return nil, errors.New("decoder exploded at byte 12")
	}

	w := f.do("GET", "/api/cart", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "decoder")
	assert.Empty(t, resp.Error.Redirect)
}

func TestCredentialStoreOutageIsNotAuth(t *testing.T) {
	f := newFixture(t)
	f.remote.FetchCartFunc = func(context.Context) ([]model.CartLineItem, error) {
		return nil, model.NewInternalError(errors.New("resolve session token: redis get session: connection refused"))
	}

	w := f.do("GET", "/api/cart", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Empty(t, resp.Error.Redirect, "shoppers must not be sent to login while the store is down")
	assert.NotContains(t, resp.Error.Message, "redis")
}

func TestGetCart(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 2))

	w := f.do("GET", "/api/cart", nil)

	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[store.CartSnapshot](t, w)
	assert.True(t, snap.Loaded)
	assert.Equal(t, []string{"a"}, cartIDs(snap))
	assert.Equal(t, model.StatusConfirmed, snap.Entries[0].Status)
	// 200 subtotal + 50 shipping + 6 tax
	assert.True(t, snap.Totals.Total.Equal(model.MustMoney("256")), "total = %s", snap.Totals.Total)
	assert.Equal(t, 2, snap.Totals.ItemCount)
}

func TestGetCartReload(t *testing.T) {
	f := newFixture(t)
	var fetches atomic.Int32
	f.remote.FetchCartFunc = func(context.Context) ([]model.CartLineItem, error) {
		fetches.Add(1)
		return []model.CartLineItem{ring("a", "100", 1)}, nil
	}

	f.do("GET", "/api/cart", nil)
	f.do("GET", "/api/cart", nil)
	assert.Equal(t, int32(1), fetches.Load(), "second read should use the loaded cart")

	w := f.do("GET", "/api/cart?reload=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 1))
	var gotExisting []bool
	f.remote.AddOrUpdateCartItemFunc = func(_ context.Context, id string, qty int, existing bool) (*model.CartLineItem, error) {
		gotExisting = append(gotExisting, existing)
		return &model.CartLineItem{ProductID: id, Quantity: qty, InStock: true}, nil
	}

	w := f.do("POST", "/api/cart/items", ring("b", "250", 2))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[cartResponse](t, w)
	require.NotNil(t, resp.Item)
	assert.Equal(t, 2, resp.Item.Quantity)
	assert.Equal(t, "Ring b", resp.Item.Name, "display fields the server left blank are kept")
	assert.Equal(t, []string{"a", "b"}, cartIDs(resp.Cart))
	assert.True(t, resp.Cart.Totals.Subtotal.Equal(model.MustMoney("600")))
	assert.True(t, resp.Cart.Totals.ShippingFee.IsZero(), "subtotal above threshold ships free")

	// Adding a product already in the cart increments it through the update endpoint.
	w = f.do("POST", "/api/cart/items", ring("a", "100", 1))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[cartResponse](t, w)
	assert.Equal(t, 2, resp.Item.Quantity)
	assert.Equal(t, []bool{false, true}, gotExisting)
}

func TestAddToCartInvalid(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("POST", "/api/cart/items", bytes.NewReader([]byte(`{"productId":`)))
	req.Header.Set(clientinfo.HeaderName, `session="`+testSession+`"`)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("POST", "/api/cart/items", model.CartLineItem{Name: "no id", Quantity: 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorResponse](t, w).Error.Code)
}

func TestSetCartQuantity(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 1), ring("b", "50", 1))

	w := f.do("PUT", "/api/cart/items/a", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code, "quantity is required")

	w = f.do("PUT", "/api/cart/items/a", map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[cartResponse](t, w)
	require.NotNil(t, resp.Item)
	assert.Equal(t, 3, resp.Item.Quantity)
	assert.Equal(t, 4, resp.Cart.Totals.ItemCount)

	w = f.do("PUT", "/api/cart/items/b", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[cartResponse](t, w)
	assert.Nil(t, resp.Item)
	assert.Equal(t, []string{"a"}, cartIDs(resp.Cart))

	w = f.do("PUT", "/api/cart/items/zzz", map[string]int{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveFromCart(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 1))

	w := f.do("DELETE", "/api/cart/items/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("DELETE", "/api/cart/items/a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[cartResponse](t, w)
	assert.Empty(t, resp.Cart.Entries)
	assert.True(t, resp.Cart.Totals.Total.IsZero(), "an empty cart owes nothing")
}

func TestRemoteFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 1))
	f.remote.AddOrUpdateCartItemFunc = func(context.Context, string, int, bool) (*model.CartLineItem, error) {
		return nil, model.NewServerError("jewelry API", 500, "")
	}

	w := f.do("PUT", "/api/cart/items/a", map[string]int{"quantity": 5})
	require.Equal(t, http.StatusBadGateway, w.Code)
	errResp := decode[errorResponse](t, w)
	assert.Equal(t, "SERVER_ERROR", errResp.Error.Code)
	assert.NotContains(t, errResp.Error.Message, "500", "backend detail stays out of the message")

	w = f.do("GET", "/api/cart", nil)
	snap := decode[store.CartSnapshot](t, w)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, 1, snap.Entries[0].Item.Quantity)
	assert.Equal(t, model.StatusConfirmed, snap.Entries[0].Status)
}

func TestWishlistFlow(t *testing.T) {
	f := newFixture(t)
	var adds atomic.Int32
	f.remote.AddToWishlistFunc = func(_ context.Context, id string) (*model.WishlistItem, error) {
		adds.Add(1)
		return &model.WishlistItem{ProductID: id, InStock: true}, nil
	}
	item := model.WishlistItem{ProductID: "n1", Name: "Necklace", Price: model.MustMoney("80")}

	w := f.do("POST", "/api/wishlist/items", item)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[wishlistResponse](t, w)
	assert.Equal(t, []string{"n1"}, wishlistIDs(resp.Wishlist))

	w = f.do("POST", "/api/wishlist/items", item)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), adds.Load(), "saving twice makes one remote call")

	w = f.do("GET", "/api/wishlist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n1"}, wishlistIDs(decode[store.WishlistSnapshot](t, w)))

	w = f.do("DELETE", "/api/wishlist/items/n1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[wishlistResponse](t, w).Wishlist.Entries)

	w = f.do("DELETE", "/api/wishlist/items/n1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveBetweenLists(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 2))

	w := f.do("POST", "/api/cart/items/a/move-to-wishlist", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[stateResponse](t, w)
	assert.Empty(t, state.Cart.Entries)
	assert.Equal(t, []string{"a"}, wishlistIDs(state.Wishlist))

	w = f.do("POST", "/api/wishlist/items/a/move-to-cart", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state = decode[stateResponse](t, w)
	assert.Empty(t, state.Wishlist.Entries)
	require.Equal(t, []string{"a"}, cartIDs(state.Cart))
	assert.Equal(t, 1, state.Cart.Entries[0].Item.Quantity, "moved items arrive with quantity one")

	w = f.do("POST", "/api/wishlist/items/zzz/move-to-cart", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 1))

	w := f.do("PUT", "/api/session/credentials", session.Credentials{Token: "opaque-token", UserID: "u1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[stateResponse](t, w)
	assert.True(t, state.Cart.Loaded)
	assert.Equal(t, []string{"a"}, cartIDs(state.Cart))

	creds, err := f.creds.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, "u1", creds.UserID)

	w = f.do("DELETE", "/api/session/credentials", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, f.registry.Len())
	_, err = f.creds.Get(context.Background(), testSession)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do("PUT", "/api/session/credentials", map[string]string{"token": "opaque-token"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorResponse](t, w).Error.Code)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)
	f.catalog.ListProductsFunc = func(context.Context) ([]model.Product, error) {
		return []model.Product{
			{ID: "1", Name: "Gold Ring", Category: "Rings", Price: model.MustMoney("300"), Stock: 2},
			{ID: "2", Name: "Silver Ring", Category: "Rings", Price: model.MustMoney("90"), Stock: 0},
			{ID: "3", Name: "Pearl Necklace", Category: "Necklaces", Price: model.MustMoney("150"), Stock: 1},
		}, nil
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all", "", []string{"1", "2", "3"}},
		{"category", "?category=rings", []string{"1", "2"}},
		{"in stock by price", "?inStock=true&sort=price_asc", []string{"3", "1"}},
		{"price range", "?minPrice=100&maxPrice=200", []string{"3"}},
		{"text", "?q=pearl", []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do("GET", "/api/products"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[productListResponse](t, w)
			ids := make([]string, 0, len(resp.Products))
			for _, p := range resp.Products {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Total)
			assert.Equal(t, []string{"Rings", "Necklaces"}, resp.Categories)
		})
	}
}

func TestListProductsBadQuery(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"?sort=random", "?minPrice=cheap", "?minPrice=300&maxPrice=100", "?inStock=maybe"} {
		w := f.do("GET", "/api/products"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)
	f.catalog.GetProductFunc = func(_ context.Context, id string) (*model.Product, error) {
		if id != "p1" {
			return nil, model.NewNotFoundError("product")
		}
		return &model.Product{ID: "p1", Name: "Opal Ring", Price: model.MustMoney("120")}, nil
	}

	w := f.do("GET", "/api/products/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Opal Ring", decode[model.Product](t, w).Name)

	w = f.do("GET", "/api/products/p2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCreateProductMultipart(t *testing.T) {
	f := newFixture(t)
	var got *model.ProductForm
	f.catalog.CreateProductFunc = func(_ context.Context, form *model.ProductForm) (*model.Product, error) {
		got = form
		return &model.Product{ID: "new", Name: form.Name}, nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"name": "Emerald Ring", "category": "Rings", "price": "420.50",
		"stock": "3", "featured": "true", "material": "18k gold",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range []string{"front.jpg", "side.jpg"} {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("jpeg:" + name))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/admin/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(clientinfo.HeaderName, `session="`+testSession+`"`)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, "Emerald Ring", got.Name)
	assert.Equal(t, "420.50", got.Price)
	assert.Equal(t, 3, got.Stock)
	assert.True(t, got.Featured)
	assert.Equal(t, "18k gold", got.Material)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "front.jpg", got.Images[0].Filename)
	assert.Equal(t, []byte("jpeg:side.jpg"), got.Images[1].Data)
}

func TestAdminProductFormErrors(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Ring"))
	require.NoError(t, mw.WriteField("stock", "many"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("PUT", "/api/admin/products/p1", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(clientinfo.HeaderName, `session="`+testSession+`"`)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error.Message, "stock")
}

func TestAdminCategoryJSON(t *testing.T) {
	f := newFixture(t)
	f.catalog.UpdateCategoryFunc = func(_ context.Context, id string, form *model.CategoryForm) (*model.Category, error) {
		return &model.Category{ID: id, Name: form.Name, Description: form.Description}, nil
	}

	w := f.do("PUT", "/api/admin/categories/c9", map[string]string{"name": "Bracelets", "description": "Wrist"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Category](t, w)
	assert.Equal(t, "c9", got.ID)
	assert.Equal(t, "Bracelets", got.Name)
}

func TestAdminOrdersAndDeletes(t *testing.T) {
	f := newFixture(t)
	var gotID string
	var gotStatus model.OrderStatus
	f.catalog.UpdateOrderStatusFunc = func(_ context.Context, id string, u *model.OrderStatusUpdate) (*model.Order, error) {
		gotID, gotStatus = id, u.Status
		return &model.Order{ID: id, Status: u.Status}, nil
	}
	f.catalog.DeleteProductFunc = func(context.Context, string) error { return nil }

	w := f.do("PUT", "/api/admin/orders/o1/status", map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o1", gotID)
	assert.Equal(t, model.OrderShipped, gotStatus)

	w = f.do("DELETE", "/api/admin/products/p1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do("DELETE", "/api/admin/categories/c1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.catalog.ListCustomersFunc = func(context.Context) ([]model.Customer, error) {
		return nil, model.NewAuthError("admin only")
	}
	w = f.do("GET", "/api/admin/customers", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", decode[errorResponse](t, w).Error.Redirect)
}

func TestGenerateDescription(t *testing.T) {
	f := newFixture(t)
	f.catalog.GenerateDescriptionFunc = func(_ context.Context, req *model.DescriptionRequest) (*model.DescriptionResponse, error) {
		return &model.DescriptionResponse{Description: "A " + req.ProductName + " for every day."}, nil
	}

	w := f.do("POST", "/api/admin/ai/description", model.DescriptionRequest{ProductName: "Hoop", Category: "Earrings"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A Hoop for every day.", decode[model.DescriptionResponse](t, w).Description)
}
