// Package model defines data structures for the storefront and the jewelry API.
package model

import (
	"time"
)

// === Catalog ===

// Product is a catalog listing as returned by GET /products/all and /products/:id.
type Product struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Price         Money     `json:"price"`
	OriginalPrice *Money    `json:"originalPrice,omitempty"`
	Images        []string  `json:"images,omitempty"`
	Stock         int       `json:"stock"`
	Material      string    `json:"material,omitempty"` // e.g. "18k gold", "sterling silver"
	Featured      bool      `json:"featured,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// InStock reports whether any units remain.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// PrimaryImage returns the first image or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// CartItem snapshots the product into a cart line.
func (p Product) CartItem(quantity int) CartLineItem {
	return CartLineItem{
		ProductID:     p.ID,
		Name:          p.Name,
		Image:         p.PrimaryImage(),
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Quantity:      quantity,
		InStock:       p.InStock(),
	}
}

// Category groups products on the storefront.
type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// === Admin forms ===
// Forms are validated locally before anything goes over the wire.

// Upload is a file attached to a multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

// ProductForm is the admin create/update payload for a product.
type ProductForm struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	Category      string   `json:"category" validate:"required"`
	Price         string   `json:"price" validate:"required,numeric"`
	OriginalPrice string   `json:"originalPrice,omitempty" validate:"omitempty,numeric"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Material      string   `json:"material,omitempty"`
	Featured      bool     `json:"featured,omitempty"`
	Images        []Upload `json:"-"`
}

// CategoryForm is the admin create/update payload for a category.
type CategoryForm struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=1000"`
	Image       *Upload `json:"-"`
}

// DescriptionRequest asks the backend AI endpoint for product copy.
type DescriptionRequest struct {
	ProductName string `json:"productName" validate:"required"`
	Category    string `json:"category" validate:"required"`
}

// DescriptionResponse carries generated product copy.
type DescriptionResponse struct {
	Description string `json:"description"`
}

// === Orders & customers ===

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a placed order as listed in the admin console.
type Order struct {
	ID        string         `json:"_id"`
	UserID    string         `json:"userId"`
	Items     []CartLineItem `json:"items"`
	Total     Money          `json:"total"`
	Status    OrderStatus    `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// OrderStatusUpdate is the admin payload for moving an order along.
type OrderStatusUpdate struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending confirmed shipped delivered cancelled"`
}

// Customer is a registered shopper as listed in the admin console.
type Customer struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
