package httpx

import (
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// CommuneHandlers provides HTTP handlers for commune administration.
type CommuneHandlers struct {
	Svc *service.CommuneService
}

const maxCommuneListLimit = 100 // Maximum number of communes that can be requested in one call

// Create handles HTTP requests to register a new commune.
// POST /api/admin/communes.
func (h *CommuneHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCommuneRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	commune, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "create_failed")
		return
	}

	WriteJSON(w, http.StatusCreated, commune)
}

// List handles HTTP requests to list communes with pagination.
// GET /api/admin/communes.
func (h *CommuneHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxCommuneListLimit)

	communes, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"communes": communes,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetByID handles HTTP requests to get a commune by ID.
// GET /api/admin/communes/{id}.
func (h *CommuneHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	commune, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}

	WriteJSON(w, http.StatusOK, commune)
}

// Update handles HTTP requests to update a commune.
// PUT /api/admin/communes/{id}.
func (h *CommuneHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	var req model.UpdateCommuneRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	commune, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, err, "update_failed")
		return
	}

	WriteJSON(w, http.StatusOK, commune)
}

// Delete handles HTTP requests to delete a commune.
// DELETE /api/admin/communes/{id}.
func (h *CommuneHandlers) Delete(w http.ResponseWriter, r *http.Request) {
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

// SuggestedPlan handles HTTP requests for the billing tier a commune's
// population puts it in.
// GET /api/admin/communes/{id}/suggested-plan.
func (h *CommuneHandlers) SuggestedPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	plan, err := h.Svc.SuggestedPlan(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "suggested_plan_failed")
		return
	}

	WriteJSON(w, http.StatusOK, plan)
}
