// Package catalog filters and orders product listings for the shop pages.
// The jewelry API returns the whole catalog in one call; narrowing it down
// happens here, in memory.
package catalog

import (
	"slices"
	"strings"

	"storefront/internal/model"
)

// SortOrder names a listing order.
type SortOrder string

const (
	SortDefault   SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortName      SortOrder = "name"
	SortNewest    SortOrder = "newest"
)

// Valid reports whether s is a known order.
func (s SortOrder) Valid() bool {
	switch s {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortName, SortNewest:
		return true
	}
	return false
}

// Query narrows a listing. Zero fields do not filter.
type Query struct {
	Category    string
	Text        string // matched against name, description and material
	MinPrice    *model.Money
	MaxPrice    *model.Money
	InStockOnly bool
	Sort        SortOrder
}

// Validate checks that the price bounds are sane and the order is known.
func (q Query) Validate() error {
	if !q.Sort.Valid() {
		return model.NewValidationError("sort", "must be one of price_asc, price_desc, name, newest")
	}
	if q.MinPrice != nil && q.MinPrice.IsNegative() {
		return model.NewValidationError("minPrice", "must not be negative")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return model.NewValidationError("maxPrice", "must not be below minPrice")
	}
	return nil
}

// Filter returns the products matching q, in their original order.
// The input slice is not modified.
func Filter(products []model.Product, q Query) []model.Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.InStockOnly && !p.InStock() {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		if text != "" && !matchesText(p, text) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesText(p model.Product, text string) bool {
	for _, field := range []string{p.Name, p.Description, p.Material} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}

// Sort orders products in place. Ties keep their catalog order.
func Sort(products []model.Product, order SortOrder) {
	var cmp func(a, b model.Product) int
	switch order {
	case SortPriceAsc:
		cmp = func(a, b model.Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceDesc:
		cmp = func(a, b model.Product) int { return b.Price.Cmp(a.Price) }
	case SortName:
		cmp = func(a, b model.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortNewest:
		cmp = func(a, b model.Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		return
	}
	slices.SortStableFunc(products, cmp)
}

// Apply filters then sorts.
func Apply(products []model.Product, q Query) []model.Product {
	out := Filter(products, q)
	Sort(out, q.Sort)
	return out
}

// Categories returns the distinct category names used by products, in first-seen order.
func Categories(products []model.Product) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}
