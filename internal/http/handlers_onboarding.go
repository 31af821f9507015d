package httpx

import (
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// OnboardingHandlers provides HTTP handlers for a user's onboarding wizard
// progress. All operations are scoped to the signed-in user.
type OnboardingHandlers struct {
	Svc *service.OnboardingService
}

// Get handles HTTP requests for the current user's onboarding progress.
// Users who never started the wizard get an empty object, not a 404.
// GET /api/onboarding.
func (h *OnboardingHandlers) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	progress, err := h.Svc.Get(r.Context(), actor.ID)
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}
	if progress == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"started": false})
		return
	}

	WriteJSON(w, http.StatusOK, progress)
}

// Save handles HTTP requests to upsert the current user's progress.
// PUT /api/onboarding.
func (h *OnboardingHandlers) Save(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req model.UpsertOnboardingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	progress, err := h.Svc.Save(r.Context(), actor.ID, &req)
	if err != nil {
		WriteServiceError(w, err, "save_failed")
		return
	}

	WriteJSON(w, http.StatusOK, progress)
}

// Reset handles HTTP requests to restart the wizard from scratch.
// DELETE /api/onboarding.
func (h *OnboardingHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Reset(r.Context(), actor.ID); err != nil {
		WriteServiceError(w, err, "reset_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"reset": true})
}
