package adapter

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Remote for testing.
// Each method can be configured via function fields.
type Mock struct {
	FetchCartFunc           func(ctx context.Context) ([]model.CartLineItem, error)
	AddOrUpdateCartItemFunc func(ctx context.Context, productID string, quantity int, existing bool) (*model.CartLineItem, error)
	RemoveCartItemFunc      func(ctx context.Context, productID string) error

	FetchWishlistFunc      func(ctx context.Context) ([]model.WishlistItem, error)
	AddToWishlistFunc      func(ctx context.Context, productID string) (*model.WishlistItem, error)
	RemoveFromWishlistFunc func(ctx context.Context, productID string) error
}

// FetchCart calls the configured FetchCartFunc or returns an empty cart.
func (m *Mock) FetchCart(ctx context.Context) ([]model.CartLineItem, error) {
	if m.FetchCartFunc != nil {
		return m.FetchCartFunc(ctx)
	}
	return []model.CartLineItem{}, nil
}

// AddOrUpdateCartItem calls the configured func or echoes a minimal line.
func (m *Mock) AddOrUpdateCartItem(ctx context.Context, productID string, quantity int, existing bool) (*model.CartLineItem, error) {
	if m.AddOrUpdateCartItemFunc != nil {
		return m.AddOrUpdateCartItemFunc(ctx, productID, quantity, existing)
	}
	return &model.CartLineItem{ProductID: productID, Quantity: quantity, InStock: true}, nil
}

// RemoveCartItem calls the configured func or succeeds.
func (m *Mock) RemoveCartItem(ctx context.Context, productID string) error {
	if m.RemoveCartItemFunc != nil {
		return m.RemoveCartItemFunc(ctx, productID)
	}
	return nil
}

// FetchWishlist calls the configured func or returns an empty wishlist.
func (m *Mock) FetchWishlist(ctx context.Context) ([]model.WishlistItem, error) {
	if m.FetchWishlistFunc != nil {
		return m.FetchWishlistFunc(ctx)
	}
	return []model.WishlistItem{}, nil
}

// AddToWishlist calls the configured func or echoes a minimal item.
func (m *Mock) AddToWishlist(ctx context.Context, productID string) (*model.WishlistItem, error) {
	if m.AddToWishlistFunc != nil {
		return m.AddToWishlistFunc(ctx, productID)
	}
	return &model.WishlistItem{ProductID: productID, InStock: true}, nil
}

// RemoveFromWishlist calls the configured func or succeeds.
func (m *Mock) RemoveFromWishlist(ctx context.Context, productID string) error {
	if m.RemoveFromWishlistFunc != nil {
		return m.RemoveFromWishlistFunc(ctx, productID)
	}
	return nil
}

// Verify Mock implements Remote interface at compile time.
var _ Remote = (*Mock)(nil)

// CatalogMock implements Catalog for testing.
// Unconfigured methods fail with a not-found error.
type CatalogMock struct {
	ListProductsFunc        func(ctx context.Context) ([]model.Product, error)
	GetProductFunc          func(ctx context.Context, id string) (*model.Product, error)
	ListCategoriesFunc      func(ctx context.Context) ([]model.Category, error)
	CreateProductFunc       func(ctx context.Context, form *model.ProductForm) (*model.Product, error)
	UpdateProductFunc       func(ctx context.Context, id string, form *model.ProductForm) (*model.Product, error)
	DeleteProductFunc       func(ctx context.Context, id string) error
	CreateCategoryFunc      func(ctx context.Context, form *model.CategoryForm) (*model.Category, error)
	UpdateCategoryFunc      func(ctx context.Context, id string, form *model.CategoryForm) (*model.Category, error)
	DeleteCategoryFunc      func(ctx context.Context, id string) error
	GenerateDescriptionFunc func(ctx context.Context, req *model.DescriptionRequest) (*model.DescriptionResponse, error)
	ListOrdersFunc          func(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatusFunc   func(ctx context.Context, id string, update *model.OrderStatusUpdate) (*model.Order, error)
	ListCustomersFunc       func(ctx context.Context) ([]model.Customer, error)
}

func (m *CatalogMock) ListProducts(ctx context.Context) ([]model.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return []model.Product{}, nil
}

func (m *CatalogMock) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("product")
}

func (m *CatalogMock) ListCategories(ctx context.Context) ([]model.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return []model.Category{}, nil
}

func (m *CatalogMock) CreateProduct(ctx context.Context, form *model.ProductForm) (*model.Product, error) {
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, form)
	}
	return nil, model.NewInternalError(nil)
}

func (m *CatalogMock) UpdateProduct(ctx context.Context, id string, form *model.ProductForm) (*model.Product, error) {
	if m.UpdateProductFunc != nil {
		return m.UpdateProductFunc(ctx, id, form)
	}
	return nil, model.NewNotFoundError("product")
}

func (m *CatalogMock) DeleteProduct(ctx context.Context, id string) error {
	if m.DeleteProductFunc != nil {
		return m.DeleteProductFunc(ctx, id)
	}
	return model.NewNotFoundError("product")
}

func (m *CatalogMock) CreateCategory(ctx context.Context, form *model.CategoryForm) (*model.Category, error) {
	if m.CreateCategoryFunc != nil {
		return m.CreateCategoryFunc(ctx, form)
	}
	return nil, model.NewInternalError(nil)
}

func (m *CatalogMock) UpdateCategory(ctx context.Context, id string, form *model.CategoryForm) (*model.Category, error) {
	if m.UpdateCategoryFunc != nil {
		return m.UpdateCategoryFunc(ctx, id, form)
	}
	return nil, model.NewNotFoundError("category")
}

func (m *CatalogMock) DeleteCategory(ctx context.Context, id string) error {
	if m.DeleteCategoryFunc != nil {
		return m.DeleteCategoryFunc(ctx, id)
	}
	return model.NewNotFoundError("category")
}

func (m *CatalogMock) GenerateDescription(ctx context.Context, req *model.DescriptionRequest) (*model.DescriptionResponse, error) {
	if m.GenerateDescriptionFunc != nil {
		return m.GenerateDescriptionFunc(ctx, req)
	}
	return &model.DescriptionResponse{}, nil
}

func (m *CatalogMock) ListOrders(ctx context.Context) ([]model.Order, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	return []model.Order{}, nil
}

func (m *CatalogMock) UpdateOrderStatus(ctx context.Context, id string, update *model.OrderStatusUpdate) (*model.Order, error) {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, id, update)
	}
	return nil, model.NewNotFoundError("order")
}

func (m *CatalogMock) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	if m.ListCustomersFunc != nil {
		return m.ListCustomersFunc(ctx)
	}
	return []model.Customer{}, nil
}

var _ Catalog = (*CatalogMock)(nil)
