package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// NotificationType identifies what triggered an admin notification.
type NotificationType string

const (
	NotificationEventCreated    NotificationType = "event_created"
	NotificationEventUpdated    NotificationType = "event_updated"
	NotificationPaymentReceived NotificationType = "payment_received"
	NotificationUserRegistered  NotificationType = "user_registered"
)

// Valid reports whether the notification type is supported.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationEventCreated, NotificationEventUpdated,
		NotificationPaymentReceived, NotificationUserRegistered:
		return true
	default:
		return false
	}
}

// AdminNotification is shown in the administrator review queue.
type AdminNotification struct {
	ID        int64            `json:"id"             db:"id"`
	Type      NotificationType `json:"type"           db:"type"`
	Title     string           `json:"title"          db:"title"`
	Message   string           `json:"message"        db:"message"`
	Data      json.RawMessage  `json:"data,omitempty" db:"data"`
	Read      bool             `json:"read"           db:"read"`
	CreatedAt time.Time        `json:"created_at"     db:"created_at"`
}

// NotificationListOptions controls filtering and pagination for notification listings.
type NotificationListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
	Type       *NotificationType
}

// CreateNotificationRequest represents parameters to create an AdminNotification.
type CreateNotificationRequest struct {
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data,omitempty"`
}

// Validate validates CreateNotificationRequest.
func (r *CreateNotificationRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid notification type")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if len(r.Data) > 0 && !json.Valid(r.Data) {
		return errors.New("data must be valid JSON")
	}
	return nil
}
