package httpx

import (
	"errors"
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// SubscriptionHandlers provides HTTP handlers for billing plans and
// subscription administration.
type SubscriptionHandlers struct {
	Svc *service.SubscriptionService
}

const maxSubscriptionListLimit = 100

// Plans handles HTTP requests for the published billing tiers. The pricing
// page renders before sign-up, so this endpoint is public.
// GET /api/billing/plans.
func (h *SubscriptionHandlers) Plans(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{"plans": h.Svc.Plans()}

	// An optional population hint answers "which tier would we land in".
	if r.URL.Query().Get("population") != "" {
		population := parseIntQuery(r, "population", -1)
		if population < 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("population must be a non-negative integer"),
			})
			return
		}
		response["suggested"] = h.Svc.PlanForPopulation(population)
	}

	WriteJSON(w, http.StatusOK, response)
}

// Record handles HTTP requests to record a subscription purchase.
// POST /api/admin/subscriptions.
func (h *SubscriptionHandlers) Record(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSubscriptionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Svc.Record(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "record_failed")
		return
	}

	WriteJSON(w, http.StatusCreated, sub)
}

// List handles HTTP requests to list subscriptions with pagination.
// GET /api/admin/subscriptions.
func (h *SubscriptionHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxSubscriptionListLimit)

	subs, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"subscriptions": subs,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetByID handles HTTP requests to get a subscription by ID.
// GET /api/admin/subscriptions/{id}.
func (h *SubscriptionHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	sub, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}

	WriteJSON(w, http.StatusOK, sub)
}

// UpdateStatus handles HTTP requests to transition a subscription's status.
// POST /api/admin/subscriptions/{id}/status.
func (h *SubscriptionHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Status model.SubscriptionStatus `json:"status"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		WriteServiceError(w, err, "update_status_failed")
		return
	}

	WriteJSON(w, http.StatusOK, sub)
}
