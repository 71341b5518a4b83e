package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"storefront/internal/model"
)

func line(id string, qty int, price string) Line {
	return Line{ProductID: id, Quantity: qty, Price: model.MustMoney(price), InStock: true}
}

func TestDiffLines(t *testing.T) {
	tests := []struct {
		name   string
		local  []Line
		server []Line
		want   *Diff
	}{
		{
			name:   "empty to items",
			local:  nil,
			server: []Line{line("p1", 2, "10"), line("p2", 1, "20")},
			want:   &Diff{Added: []string{"p1", "p2"}},
		},
		{
			name:   "items to empty",
			local:  []Line{line("p1", 2, "10"), line("p2", 1, "20")},
			server: nil,
			want:   &Diff{Removed: []string{"p1", "p2"}},
		},
		{
			name:   "quantity update",
			local:  []Line{line("p1", 2, "10")},
			server: []Line{line("p1", 5, "10")},
			want:   &Diff{Changed: []Change{{ProductID: "p1", OldQuantity: 2, NewQuantity: 5}}},
		},
		{
			name:   "price drift only",
			local:  []Line{line("p1", 1, "10.00")},
			server: []Line{line("p1", 1, "12.50")},
			want:   &Diff{Changed: []Change{{ProductID: "p1", OldQuantity: 1, NewQuantity: 1, PriceChanged: true}}},
		},
		{
			name:   "equal prices with different scale",
			local:  []Line{line("p1", 1, "10")},
			server: []Line{line("p1", 1, "10.00")},
			want:   &Diff{},
		},
		{
			name:   "stock flag flip",
			local:  []Line{line("p1", 1, "10")},
			server: []Line{{ProductID: "p1", Quantity: 1, Price: model.MustMoney("10"), InStock: false}},
			want:   &Diff{Changed: []Change{{ProductID: "p1", OldQuantity: 1, NewQuantity: 1, StockChanged: true}}},
		},
		{
			name:   "mixed keeps server and local order",
			local:  []Line{line("gone-b", 1, "1"), line("keep", 1, "1"), line("gone-a", 1, "1")},
			server: []Line{line("new-z", 1, "1"), line("keep", 3, "1"), line("new-a", 1, "1")},
			want: &Diff{
				Added:   []string{"new-z", "new-a"},
				Removed: []string{"gone-b", "gone-a"},
				Changed: []Change{{ProductID: "keep", OldQuantity: 1, NewQuantity: 3}},
			},
		},
		{
			name:   "duplicate server ids use first occurrence",
			local:  []Line{line("p1", 1, "10")},
			server: []Line{line("p1", 1, "10"), line("p1", 9, "10")},
			want:   &Diff{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffLines(tt.local, tt.server)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("DiffLines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiff_IsEmpty(t *testing.T) {
	if !(&Diff{}).IsEmpty() {
		t.Error("zero diff should be empty")
	}
	if (&Diff{Removed: []string{"p1"}}).IsEmpty() {
		t.Error("diff with removal should not be empty")
	}
}

func TestLineProjections(t *testing.T) {
	cart := []model.CartLineItem{{ProductID: "p1", Quantity: 4, Price: model.MustMoney("5"), InStock: true}}
	wish := []model.WishlistItem{{ProductID: "w1", Price: model.MustMoney("7")}}

	cartLines := CartLines(cart)
	if cartLines[0].Quantity != 4 || !cartLines[0].InStock {
		t.Errorf("CartLines() = %+v", cartLines[0])
	}
	wishLines := WishlistLines(wish)
	if wishLines[0].Quantity != 1 {
		t.Errorf("wishlist lines should carry quantity 1, got %d", wishLines[0].Quantity)
	}
}

func TestCommon(t *testing.T) {
	lines := []Line{line("a", 1, "1"), line("c", 1, "1")}

	got := Common([]string{"c", "b", "a"}, lines)

	if diff := cmp.Diff([]string{"c", "a"}, got); diff != "" {
		t.Errorf("Common() mismatch (-want +got):\n%s", diff)
	}
	if got := Common([]string{"x"}, lines); len(got) != 0 {
		t.Errorf("Common() = %v, want empty", got)
	}
}
