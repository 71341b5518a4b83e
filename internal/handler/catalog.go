package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/catalog"
	"storefront/internal/model"
)

// productListResponse is a filtered listing. Categories are the facets of
// the whole catalog so the filter menu does not shrink as filters apply.
type productListResponse struct {
	Products   []model.Product `json:"products"`
	Total      int             `json:"total"`
	Categories []string        `json:"categories"`
}

// handleListProducts serves GET /api/products?category=&q=&minPrice=&maxPrice=&inStock=&sort=
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	products, err := cat.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	matched := catalog.Apply(products, q)
	h.writeJSON(w, http.StatusOK, productListResponse{
		Products:   matched,
		Total:      len(matched),
		Categories: catalog.Categories(products),
	})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := cat.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	categories, err := cat.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, categories)
}

// parseQuery maps listing query parameters onto a catalog.Query.
func parseQuery(values url.Values) (catalog.Query, error) {
	q := catalog.Query{
		Category: strings.TrimSpace(values.Get("category")),
		Text:     values.Get("q"),
		Sort:     catalog.SortOrder(values.Get("sort")),
	}

	var err error
	if q.MinPrice, err = parsePrice(values, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice(values, "maxPrice"); err != nil {
		return q, err
	}
	if raw := values.Get("inStock"); raw != "" {
		if q.InStockOnly, err = strconv.ParseBool(raw); err != nil {
			return q, model.NewValidationError("inStock", "must be true or false")
		}
	}
	return q, q.Validate()
}

func parsePrice(values url.Values, key string) (*model.Money, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, model.NewValidationError(key, "must be a number")
	}
	return &price, nil
}
