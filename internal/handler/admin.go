package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/model"
)

// MaxUploadSize bounds an admin multipart form, images included.
const MaxUploadSize = 20 << 20 // 20MB

// maxImages is how many product images one form may carry.
const maxImages = 10

// === Products ===

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := parseProductForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := cat.CreateProduct(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := parseProductForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := cat.UpdateProduct(r.Context(), r.PathValue("id"), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := cat.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Categories ===

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	form, err := parseCategoryForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	category, err := cat.CreateCategory(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	form, err := parseCategoryForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	category, err := cat.UpdateCategory(r.Context(), r.PathValue("id"), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, category)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := cat.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Descriptions, orders, customers ===

func (h *Handler) handleGenerateDescription(w http.ResponseWriter, r *http.Request) {
	var req model.DescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := cat.GenerateDescription(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orders, err := cat.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var update model.OrderStatusUpdate
	if err := decodeJSON(r, &update); err != nil {
		h.writeError(w, r, err)
		return
	}
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := cat.UpdateOrderStatus(r.Context(), r.PathValue("id"), &update)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalogFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	customers, err := cat.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// === Form parsing ===

// isMultipart reports whether the request carries multipart/form-data.
// Admin forms without files may also be sent as JSON.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart reads the form, keeping at most MaxUploadSize in memory.
func parseMultipart(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewValidationError("form", "upload too large")
		}
		return model.NewValidationError("form", "invalid multipart form")
	}
	return nil
}

func parseProductForm(r *http.Request) (*model.ProductForm, error) {
	var form model.ProductForm
	if !isMultipart(r) {
		if err := decodeJSON(r, &form); err != nil {
			return nil, err
		}
		return &form, nil
	}
	if err := parseMultipart(r); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	form.Name = strings.TrimSpace(r.FormValue("name"))
	form.Description = r.FormValue("description")
	form.Category = strings.TrimSpace(r.FormValue("category"))
	form.Price = strings.TrimSpace(r.FormValue("price"))
	form.OriginalPrice = strings.TrimSpace(r.FormValue("originalPrice"))
	form.Material = strings.TrimSpace(r.FormValue("material"))
	if raw := r.FormValue("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return nil, model.NewValidationError("stock", "must be a whole number")
		}
		form.Stock = stock
	}
	if raw := r.FormValue("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, model.NewValidationError("featured", "must be true or false")
		}
		form.Featured = featured
	}

	files := r.MultipartForm.File["images"]
	if len(files) > maxImages {
		return nil, model.NewValidationError("images", "at most "+strconv.Itoa(maxImages)+" files")
	}
	for _, fh := range files {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		form.Images = append(form.Images, up)
	}
	return &form, nil
}

func parseCategoryForm(r *http.Request) (*model.CategoryForm, error) {
	var form model.CategoryForm
	if !isMultipart(r) {
		if err := decodeJSON(r, &form); err != nil {
			return nil, err
		}
		return &form, nil
	}
	if err := parseMultipart(r); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	form.Name = strings.TrimSpace(r.FormValue("name"))
	form.Description = r.FormValue("description")
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		up, err := readUpload(files[0])
		if err != nil {
			return nil, err
		}
		form.Image = &up
	}
	return &form, nil
}

func readUpload(fh *multipart.FileHeader) (model.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Upload{}, model.NewValidationError("file", "unreadable upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.Upload{}, model.NewValidationError("file", "unreadable upload")
	}
	return model.Upload{Filename: fh.Filename, Data: data}, nil
}
