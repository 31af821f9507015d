package httpx

import (
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// ProfileHandlers provides HTTP handlers for user profiles.
type ProfileHandlers struct {
	Svc *service.ProfileService
}

const maxProfileListLimit = 100

// Me handles HTTP requests for the signed-in user's merged view. The actor
// already carries the profile merge done by the auth middleware.
// GET /api/me.
func (h *ProfileHandlers) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, actor)
}

// List handles HTTP requests to list profiles with pagination.
// GET /api/admin/profiles.
func (h *ProfileHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxProfileListLimit)

	profiles, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"profiles": profiles,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetByUserID handles HTTP requests to get a profile by user ID.
// GET /api/admin/profiles/{userID}.
func (h *ProfileHandlers) GetByUserID(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	profile, err := h.Svc.GetByUserID(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// Update handles HTTP requests to change a profile's role or commune.
// PUT /api/admin/profiles/{userID}.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req model.UpdateProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Svc.Update(r.Context(), userID, req)
	if err != nil {
		WriteServiceError(w, err, "update_failed")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// Delete handles HTTP requests to remove a profile.
// DELETE /api/admin/profiles/{userID}.
func (h *ProfileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	if err := h.Svc.Delete(r.Context(), userID); err != nil {
		WriteServiceError(w, err, "delete_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
