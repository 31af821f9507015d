package httpx

import (
	"errors"
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// NotificationHandlers provides HTTP handlers for the admin notification feed.
type NotificationHandlers struct {
	Svc *service.NotificationService
}

const maxNotificationListLimit = 100

// List handles HTTP requests to list notifications.
// GET /api/admin/notifications?limit=&offset=&unread=&type=.
func (h *NotificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxNotificationListLimit)
	opts := model.NotificationListOptions{
		Limit:      limit,
		Offset:     offset,
		UnreadOnly: r.URL.Query().Get("unread") == "true",
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		nt := model.NotificationType(raw)
		if !nt.Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_query",
				Err:     errors.New("unknown notification type"),
			})
			return
		}
		opts.Type = &nt
	}

	items, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"limit":         limit,
		"offset":        offset,
	})
}

// UnreadCount handles HTTP requests for the unread badge count.
// GET /api/admin/notifications/unread-count.
func (h *NotificationHandlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Svc.UnreadCount(r.Context())
	if err != nil {
		WriteServiceError(w, err, "unread_count_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles HTTP requests to mark a notification as read.
// POST /api/admin/notifications/{id}/read.
func (h *NotificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	if err := h.Svc.MarkRead(r.Context(), id); err != nil {
		WriteServiceError(w, err, "mark_read_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// Delete handles HTTP requests to remove a notification.
// DELETE /api/admin/notifications/{id}.
func (h *NotificationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
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
