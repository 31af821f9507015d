package httpx

import (
	"net/http"

	"github.com/communeo/communeo-api/internal/service"
)

// DashboardHandlers provides HTTP handlers for the dashboard view.
type DashboardHandlers struct {
	Svc *service.DashboardService
}

// Get handles HTTP requests for the dashboard summary.
// GET /api/dashboard.
func (h *DashboardHandlers) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	dash, err := h.Svc.Get(r.Context(), actor)
	if err != nil {
		WriteServiceError(w, err, "dashboard_failed")
		return
	}

	WriteJSON(w, http.StatusOK, dash)
}
