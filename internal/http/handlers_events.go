// Package httpx provides HTTP handlers and utilities for the communeo API.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// EventHandlers provides HTTP handlers for event listing operations.
type EventHandlers struct {
	Svc *service.EventService
}

const (
	defaultEventListLimit = 50
	maxEventListLimit     = 200 // Maximum number of events that can be requested in one call
)

// Create handles HTTP requests to submit a new event.
// POST /api/events.
func (h *EventHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	event, err := h.Svc.Create(r.Context(), actor, &req)
	if err != nil {
		WriteServiceError(w, err, "create_failed")
		return
	}

	WriteJSON(w, http.StatusCreated, event)
}

// List handles HTTP requests to list events with pagination and filters.
// GET /api/events?limit=&offset=&commune_id=&status=.
func (h *EventHandlers) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	limit, offset := ParseLimitOffset(r, defaultEventListLimit, maxEventListLimit)
	opts := model.EventsListOptions{Limit: limit, Offset: offset}

	if raw := r.URL.Query().Get("commune_id"); raw != "" {
		id := int64(parseIntQuery(r, "commune_id", 0))
		if id <= 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("commune_id must be a positive integer"),
			})
			return
		}
		opts.CommuneID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, valid := model.ParseEventStatus(raw)
		if !valid {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("status must be one of: pending, approved, rejected, pushed"),
			})
			return
		}
		opts.Status = &status
	}

	page, err := h.Svc.List(r.Context(), actor, opts)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"events": page.Events,
		"total":  page.Total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetByID handles HTTP requests to get an event by ID.
// GET /api/events/{id}.
func (h *EventHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	event, err := h.Svc.GetByID(r.Context(), actor, id)
	if err != nil {
		WriteServiceError(w, err, "get_failed")
		return
	}

	WriteJSON(w, http.StatusOK, event)
}

// Update handles HTTP requests to apply a partial update to an event.
// PUT /api/events/{id}.
func (h *EventHandlers) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	var req model.UpdateEventRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	event, err := h.Svc.Update(r.Context(), actor, id, req)
	if err != nil {
		WriteServiceError(w, err, "update_failed")
		return
	}

	WriteJSON(w, http.StatusOK, event)
}

// Delete handles HTTP requests to delete an event.
// DELETE /api/events/{id}.
func (h *EventHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), actor, id); err != nil {
		WriteServiceError(w, err, "delete_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Approve handles HTTP requests to approve a pending event.
// POST /api/admin/events/{id}/approve.
func (h *EventHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Svc.Approve)
}

// Reject handles HTTP requests to reject a pending event.
// POST /api/admin/events/{id}/reject.
func (h *EventHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Svc.Reject)
}

type reviewFunc func(ctx context.Context, actor model.User, id int64) (*model.Event, error)

func (h *EventHandlers) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	event, err := fn(r.Context(), actor, id)
	if err != nil {
		WriteServiceError(w, err, "review_failed")
		return
	}

	WriteJSON(w, http.StatusOK, event)
}

// StatusCounts handles HTTP requests for the moderation status breakdown.
// Admins may scope the counts to a single commune with ?commune_id=.
// GET /api/events/status-counts.
func (h *EventHandlers) StatusCounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var communeID *int64
	if r.URL.Query().Get("commune_id") != "" {
		id := int64(parseIntQuery(r, "commune_id", 0))
		if id <= 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("commune_id must be a positive integer"),
			})
			return
		}
		communeID = &id
	}

	counts, err := h.Svc.StatusCounts(r.Context(), actor, communeID)
	if err != nil {
		WriteServiceError(w, err, "status_counts_failed")
		return
	}

	WriteJSON(w, http.StatusOK, counts)
}
