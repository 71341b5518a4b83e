package model

// CartLineItem is one product in the shopper's cart.
// Price is the snapshot taken when the item was added; it is not re-fetched
// from the catalog and may drift from the current listing price.
type CartLineItem struct {
	ProductID     string `json:"productId" validate:"required"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	Price         Money  `json:"price"`
	OriginalPrice *Money `json:"originalPrice,omitempty"` // savings display only
	Quantity      int    `json:"quantity" validate:"gte=0"`
	InStock       bool   `json:"inStock"` // advisory; never blocks a mutation
}

// LineTotal returns price × quantity.
func (i CartLineItem) LineTotal() Money {
	return i.Price.Mul(NewQuantity(i.Quantity))
}

// LineSavings returns (originalPrice − price) × quantity, floored at zero.
func (i CartLineItem) LineSavings() Money {
	if i.OriginalPrice == nil {
		return Zero
	}
	diff := i.OriginalPrice.Sub(i.Price)
	if diff.IsNegative() {
		return Zero
	}
	return diff.Mul(NewQuantity(i.Quantity))
}

// WishlistItem is a saved-for-later product reference.
type WishlistItem struct {
	ProductID     string `json:"productId" validate:"required"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	Price         Money  `json:"price"`
	OriginalPrice *Money `json:"originalPrice,omitempty"`
	InStock       bool   `json:"inStock"`
}

// ToCartItem converts a saved item into a cart line with the given quantity.
func (w WishlistItem) ToCartItem(quantity int) CartLineItem {
	return CartLineItem{
		ProductID:     w.ProductID,
		Name:          w.Name,
		Image:         w.Image,
		Price:         w.Price,
		OriginalPrice: w.OriginalPrice,
		Quantity:      quantity,
		InStock:       w.InStock,
	}
}

// ToWishlistItem drops the quantity of a cart line.
func (i CartLineItem) ToWishlistItem() WishlistItem {
	return WishlistItem{
		ProductID:     i.ProductID,
		Name:          i.Name,
		Image:         i.Image,
		Price:         i.Price,
		OriginalPrice: i.OriginalPrice,
		InStock:       i.InStock,
	}
}

// ItemStatus is the sync state of a local entry against the server.
type ItemStatus string

const (
	// StatusConfirmed means the server acknowledged the entry as shown.
	StatusConfirmed ItemStatus = "confirmed"
	// StatusPendingUpsert means a create or quantity change is in flight.
	StatusPendingUpsert ItemStatus = "pending-upsert"
	// StatusPendingDelete means a removal is in flight; the entry is hidden.
	StatusPendingDelete ItemStatus = "pending-delete"
)

// Totals holds the derived money values shown on the cart page.
type Totals struct {
	ItemCount   int   `json:"itemCount"`
	Subtotal    Money `json:"subtotal"`
	Savings     Money `json:"savings"`
	ShippingFee Money `json:"shippingFee"`
	Tax         Money `json:"tax"`
	Total       Money `json:"total"`
}

// Pricing holds the configured checkout rules.
type Pricing struct {
	FreeShippingThreshold Money // shipping is free when subtotal is strictly above this
	FlatShippingFee       Money
	TaxRate               Money // fraction, e.g. 0.03
}

// ComputeTotals derives totals from a list of lines.
// An empty cart owes nothing, including shipping.
func (p Pricing) ComputeTotals(items []CartLineItem) Totals {
	t := Totals{
		Subtotal:    Zero,
		Savings:     Zero,
		ShippingFee: Zero,
		Tax:         Zero,
		Total:       Zero,
	}
	for _, item := range items {
		t.ItemCount += item.Quantity
		t.Subtotal = t.Subtotal.Add(item.LineTotal())
		t.Savings = t.Savings.Add(item.LineSavings())
	}
	if len(items) == 0 {
		return t
	}
	if !t.Subtotal.GreaterThan(p.FreeShippingThreshold) {
		t.ShippingFee = p.FlatShippingFee
	}
	t.Tax = RoundMoney(t.Subtotal.Mul(p.TaxRate))
	t.Total = t.Subtotal.Add(t.ShippingFee).Add(t.Tax)
	return t
}
