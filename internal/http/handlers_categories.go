package httpx

import (
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// CategoryHandlers provides HTTP handlers for event categories.
type CategoryHandlers struct {
	Svc *service.CategoryService
}

// Create handles HTTP requests to add a category.
// POST /api/admin/categories.
func (h *CategoryHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCategoryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	category, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "create_failed")
		return
	}

	WriteJSON(w, http.StatusCreated, category)
}

// List handles HTTP requests for the full category list. Categories are a
// small fixed vocabulary, so there is no pagination.
// GET /api/categories.
func (h *CategoryHandlers) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Svc.List(r.Context())
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

// Delete handles HTTP requests to remove a category.
// DELETE /api/admin/categories/{id}.
func (h *CategoryHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err, "delete_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
