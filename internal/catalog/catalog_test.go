package catalog

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"storefront/internal/model"
)

func money(s string) *model.Money {
	m := model.MustMoney(s)
	return &m
}

var day = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func fixture() []model.Product {
	return []model.Product{
		{ID: "r1", Name: "Solitaire Ring", Category: "Rings", Price: model.MustMoney("1200"), Stock: 2, Material: "18k gold", CreatedAt: day},
		{ID: "n1", Name: "pearl necklace", Category: "Necklaces", Price: model.MustMoney("450"), Stock: 0, Description: "Freshwater pearls", CreatedAt: day.AddDate(0, 0, 3)},
		{ID: "r2", Name: "Band Ring", Category: "rings", Price: model.MustMoney("300"), Stock: 5, Material: "sterling silver", CreatedAt: day.AddDate(0, 0, 1)},
		{ID: "e1", Name: "Hoop Earrings", Category: "Earrings", Price: model.MustMoney("300"), Stock: 1, Material: "Gold vermeil", CreatedAt: day.AddDate(0, 0, 2)},
	}
}

func productIDs(ps []model.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"no filter", Query{}, []string{"r1", "n1", "r2", "e1"}},
		{"category is case-insensitive", Query{Category: "RINGS"}, []string{"r1", "r2"}},
		{"text matches name", Query{Text: "ring"}, []string{"r1", "r2", "e1"}},
		{"text matches description", Query{Text: "freshwater"}, []string{"n1"}},
		{"text matches material", Query{Text: " gold "}, []string{"r1", "e1"}},
		{"in stock only", Query{InStockOnly: true}, []string{"r1", "r2", "e1"}},
		{"min price inclusive", Query{MinPrice: money("450")}, []string{"r1", "n1"}},
		{"max price inclusive", Query{MaxPrice: money("300")}, []string{"r2", "e1"}},
		{"price range", Query{MinPrice: money("300"), MaxPrice: money("500")}, []string{"n1", "r2", "e1"}},
		{"combined", Query{Category: "rings", InStockOnly: true, MaxPrice: money("1000")}, []string{"r2"}},
		{"nothing matches", Query{Text: "platinum"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := productIDs(Filter(fixture(), tt.query))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortDefault, []string{"r1", "n1", "r2", "e1"}},
		{SortPriceAsc, []string{"r2", "e1", "n1", "r1"}}, // r2 and e1 tie, catalog order kept
		{SortPriceDesc, []string{"r1", "n1", "r2", "e1"}},
		{SortName, []string{"r2", "e1", "n1", "r1"}},
		{SortNewest, []string{"n1", "e1", "r2", "r1"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			ps := fixture()
			Sort(ps, tt.order)
			if diff := cmp.Diff(tt.want, productIDs(ps)); diff != "" {
				t.Errorf("Sort(%q) mismatch (-want +got):\n%s", tt.order, diff)
			}
		})
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	ps := fixture()
	got := Apply(ps, Query{Sort: SortPriceAsc, InStockOnly: true})

	if diff := cmp.Diff([]string{"r2", "e1", "r1"}, productIDs(got)); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"r1", "n1", "r2", "e1"}, productIDs(ps)); diff != "" {
		t.Errorf("input reordered (-want +got):\n%s", diff)
	}
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"empty", Query{}, false},
		{"known sort", Query{Sort: SortNewest}, false},
		{"unknown sort", Query{Sort: "popular"}, true},
		{"negative min", Query{MinPrice: money("-1")}, true},
		{"inverted range", Query{MinPrice: money("10"), MaxPrice: money("5")}, true},
		{"equal bounds", Query{MinPrice: money("10"), MaxPrice: money("10")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	got := Categories(fixture())
	want := []string{"Rings", "Necklaces", "rings", "Earrings"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
}
