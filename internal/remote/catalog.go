package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"storefront/internal/model"
)

// === Public catalog reads ===

// ListProducts returns every product. No token required.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	req := request{op: "list_products", method: http.MethodGet, path: "/products/all", resource: "products"}
	out := newList[model.Product]("products")
	if err := c.public(ctx, req, out); err != nil {
		return nil, err
	}
	return out.Items(), nil
}

// GetProduct returns a single product. No token required.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.NewValidationError("id", "is required")
	}
	req := request{op: "get_product", method: http.MethodGet, path: "/products/" + escape(id), resource: "product"}
	out := newOne[model.Product]("product")
	if err := c.public(ctx, req, out); err != nil {
		return nil, err
	}
	if out.Value() == nil || out.Value().ID == "" {
		return nil, model.NewNotFoundError("product")
	}
	return out.Value(), nil
}

// ListCategories returns every category. No token required.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	req := request{op: "list_categories", method: http.MethodGet, path: "/category/all-categories", resource: "categories"}
	out := newList[model.Category]("categories")
	if err := c.public(ctx, req, out); err != nil {
		return nil, err
	}
	return out.Items(), nil
}

// === Admin: products ===

// CreateProduct uploads a new product with its images.
func (c *Client) CreateProduct(ctx context.Context, form *model.ProductForm) (*model.Product, error) {
	req, err := productRequest("create_product", http.MethodPost, "/products/add-product", form)
	if err != nil {
		return nil, err
	}
	return c.sendProduct(ctx, req)
}

// UpdateProduct replaces a product's fields; images are appended when present.
func (c *Client) UpdateProduct(ctx context.Context, id string, form *model.ProductForm) (*model.Product, error) {
	if id == "" {
		return nil, model.NewValidationError("id", "is required")
	}
	req, err := productRequest("update_product", http.MethodPut, "/products/update-product/"+escape(id), form)
	if err != nil {
		return nil, err
	}
	return c.sendProduct(ctx, req)
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return model.NewValidationError("id", "is required")
	}
	req := request{op: "delete_product", method: http.MethodDelete, path: "/products/delete-product/" + escape(id), resource: "product"}
	return c.authorized(ctx, req, nil)
}

func (c *Client) sendProduct(ctx context.Context, req request) (*model.Product, error) {
	req.resource = "product"
	out := newOne[model.Product]("product")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	if out.Value() == nil {
		return &model.Product{}, nil
	}
	return out.Value(), nil
}

func productRequest(op, method, path string, form *model.ProductForm) (request, error) {
	if form == nil {
		return request{}, model.NewValidationError("product", "is required")
	}
	if err := model.Validate(form); err != nil {
		return request{}, err
	}

	mw := newMultipart()
	mw.field("name", form.Name)
	mw.field("description", form.Description)
	mw.field("category", form.Category)
	mw.field("price", form.Price)
	if form.OriginalPrice != "" {
		mw.field("originalPrice", form.OriginalPrice)
	}
	mw.field("stock", strconv.Itoa(form.Stock))
	if form.Material != "" {
		mw.field("material", form.Material)
	}
	mw.field("featured", strconv.FormatBool(form.Featured))
	for _, img := range form.Images {
		mw.file("images", img)
	}
	body, contentType, err := mw.close()
	if err != nil {
		return request{}, model.NewInternalError(err)
	}
	return request{op: op, method: method, path: path, body: body, contentType: contentType}, nil
}

// === Admin: categories ===

// CreateCategory uploads a new category with an optional image.
func (c *Client) CreateCategory(ctx context.Context, form *model.CategoryForm) (*model.Category, error) {
	req, err := categoryRequest("create_category", http.MethodPost, "/category/add-category", form)
	if err != nil {
		return nil, err
	}
	return c.sendCategory(ctx, req)
}

// UpdateCategory replaces a category's fields.
func (c *Client) UpdateCategory(ctx context.Context, id string, form *model.CategoryForm) (*model.Category, error) {
	if id == "" {
		return nil, model.NewValidationError("id", "is required")
	}
	req, err := categoryRequest("update_category", http.MethodPut, "/category/update-category/"+escape(id), form)
	if err != nil {
		return nil, err
	}
	return c.sendCategory(ctx, req)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return model.NewValidationError("id", "is required")
	}
	req := request{op: "delete_category", method: http.MethodDelete, path: "/category/delete-category/" + escape(id), resource: "category"}
	return c.authorized(ctx, req, nil)
}

func (c *Client) sendCategory(ctx context.Context, req request) (*model.Category, error) {
	req.resource = "category"
	out := newOne[model.Category]("category")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	if out.Value() == nil {
		return &model.Category{}, nil
	}
	return out.Value(), nil
}

func categoryRequest(op, method, path string, form *model.CategoryForm) (request, error) {
	if form == nil {
		return request{}, model.NewValidationError("category", "is required")
	}
	if err := model.Validate(form); err != nil {
		return request{}, err
	}

	mw := newMultipart()
	mw.field("name", form.Name)
	mw.field("description", form.Description)
	if form.Image != nil {
		mw.file("image", *form.Image)
	}
	body, contentType, err := mw.close()
	if err != nil {
		return request{}, model.NewInternalError(err)
	}
	return request{op: op, method: method, path: path, body: body, contentType: contentType}, nil
}

// === AI copywriting ===

// GenerateDescription asks the backend to draft product copy.
func (c *Client) GenerateDescription(ctx context.Context, in *model.DescriptionRequest) (*model.DescriptionResponse, error) {
	if in == nil {
		return nil, model.NewValidationError("request", "is required")
	}
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	req, err := jsonRequest("generate_description", http.MethodPost, "/ai/generate-description", in)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	var out model.DescriptionResponse
	if err := c.authorized(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// === Admin: orders and customers ===

// ListOrders returns every order, newest first as the backend sorts them.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	req := request{op: "list_orders", method: http.MethodGet, path: "/orders/all-orders", resource: "orders"}
	out := newList[model.Order]("orders")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	return out.Items(), nil
}

// UpdateOrderStatus moves an order to a new fulfillment state.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, update *model.OrderStatusUpdate) (*model.Order, error) {
	if id == "" {
		return nil, model.NewValidationError("id", "is required")
	}
	if update == nil {
		return nil, model.NewValidationError("status", "is required")
	}
	if err := model.Validate(update); err != nil {
		return nil, err
	}
	req, err := jsonRequest("update_order_status", http.MethodPut, "/orders/update-status/"+escape(id), update)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	req.resource = "order"
	out := newOne[model.Order]("order")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	if out.Value() == nil || out.Value().ID == "" {
		return &model.Order{ID: id, Status: update.Status}, nil
	}
	return out.Value(), nil
}

// ListCustomers returns registered shoppers.
func (c *Client) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	req := request{op: "list_customers", method: http.MethodGet, path: "/users/all-users", resource: "customers"}
	out := newList[model.Customer]("users")
	if err := c.authorized(ctx, req, out); err != nil {
		return nil, err
	}
	return out.Items(), nil
}

// multipartBody accumulates a multipart form, keeping the first error.
type multipartBody struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newMultipart() *multipartBody {
	m := &multipartBody{}
	m.w = multipart.NewWriter(&m.buf)
	return m
}

func (m *multipartBody) field(name, value string) {
	if m.err != nil {
		return
	}
	m.err = m.w.WriteField(name, value)
}

func (m *multipartBody) file(field string, up model.Upload) {
	if m.err != nil {
		return
	}
	if up.Filename == "" {
		up.Filename = field
	}
	// The backend's upload filter checks the part type, so sniff it
	// instead of sending everything as application/octet-stream.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": up.Filename,
	}))
	header.Set("Content-Type", http.DetectContentType(up.Data))
	part, err := m.w.CreatePart(header)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = part.Write(up.Data)
}

func (m *multipartBody) close() ([]byte, string, error) {
	if m.err != nil {
		return nil, "", fmt.Errorf("building multipart form: %w", m.err)
	}
	if err := m.w.Close(); err != nil {
		return nil, "", fmt.Errorf("building multipart form: %w", err)
	}
	return m.buf.Bytes(), m.w.FormDataContentType(), nil
}
