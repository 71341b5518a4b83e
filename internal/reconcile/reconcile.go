// Package reconcile computes the delta between the list a page session holds
// and the list the jewelry API reports. Containers use it after a reload to
// publish fine-grained change events, and transfers use it to find products
// left behind in both lists.
package reconcile

import (
	"storefront/internal/model"
)

// Line is the comparable projection of a cart or wishlist entry.
type Line struct {
	ProductID string
	Quantity  int // always 1 for wishlist entries
	Price     model.Money
	InStock   bool
}

// Change describes an entry present on both sides that differs.
type Change struct {
	ProductID    string
	OldQuantity  int
	NewQuantity  int
	PriceChanged bool
	StockChanged bool
}

// Diff lists what a reload changed. Added and Changed follow server order,
// Removed follows local order, so event streams are stable.
type Diff struct {
	Added   []string // on the server, not held locally
	Removed []string // held locally, gone from the server
	Changed []Change
}

// IsEmpty returns true if the lists already agree.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffLines computes the delta between local and server lines.
// Matching is by ProductID. A duplicated ID keeps its first occurrence.
func DiffLines(local, server []Line) *Diff {
	diff := &Diff{}

	localByID := index(local)
	serverByID := index(server)

	handled := make(map[string]bool, len(server))
	for _, s := range server {
		if handled[s.ProductID] {
			continue // later duplicate
		}
		handled[s.ProductID] = true
		l, exists := localByID[s.ProductID]
		if !exists {
			diff.Added = append(diff.Added, s.ProductID)
			continue
		}
		change := Change{
			ProductID:    s.ProductID,
			OldQuantity:  l.Quantity,
			NewQuantity:  s.Quantity,
			PriceChanged: !l.Price.Equal(s.Price),
			StockChanged: l.InStock != s.InStock,
		}
		if change.OldQuantity != change.NewQuantity || change.PriceChanged || change.StockChanged {
			diff.Changed = append(diff.Changed, change)
		}
	}

	seen := make(map[string]bool, len(local))
	for _, l := range local {
		if seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		if _, exists := serverByID[l.ProductID]; !exists {
			diff.Removed = append(diff.Removed, l.ProductID)
		}
	}

	return diff
}

func index(lines []Line) map[string]Line {
	m := make(map[string]Line, len(lines))
	for _, line := range lines {
		if _, dup := m[line.ProductID]; !dup {
			m[line.ProductID] = line
		}
	}
	return m
}

// CartLines projects cart items for diffing.
func CartLines(items []model.CartLineItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price, InStock: item.InStock}
	}
	return lines
}

// WishlistLines projects wishlist items for diffing.
func WishlistLines(items []model.WishlistItem) []Line {
	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{ProductID: item.ProductID, Quantity: 1, Price: item.Price, InStock: item.InStock}
	}
	return lines
}

// Common returns the ids of candidates that appear in lines, in candidate order.
// Transfers use it to find products duplicated across cart and wishlist.
func Common(candidates []string, lines []Line) []string {
	present := make(map[string]bool, len(lines))
	for _, line := range lines {
		present[line.ProductID] = true
	}
	var out []string
	for _, id := range candidates {
		if present[id] {
			out = append(out, id)
		}
	}
	return out
}
