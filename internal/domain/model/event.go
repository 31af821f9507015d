package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxEventTitleLen   = 255
	maxEventAddressLen = 500
)

// EventStatus is the moderation state of an event listing.
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
	// EventStatusPushed marks an approved event accepted by the APLO platform.
	EventStatusPushed EventStatus = "pushed"
)

// Valid reports whether the event status is supported.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusRejected, EventStatusPushed:
		return true
	default:
		return false
	}
}

// ParseEventStatus normalizes a status string and reports whether it is supported.
func ParseEventStatus(value string) (EventStatus, bool) {
	s := EventStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// AploSyncStatus tracks publication of an event to the APLO platform.
type AploSyncStatus string

const (
	AploSyncPending AploSyncStatus = "pending"
	AploSyncSynced  AploSyncStatus = "synced"
	AploSyncError   AploSyncStatus = "error"
)

// Valid reports whether the sync status is supported.
func (s AploSyncStatus) Valid() bool {
	switch s {
	case AploSyncPending, AploSyncSynced, AploSyncError:
		return true
	default:
		return false
	}
}

// Event represents a tourism/event listing submitted by a commune.
type Event struct {
	ID             int64          `json:"id"                           db:"id"`
	Title          string         `json:"title"                        db:"title"`
	Description    string         `json:"description"                  db:"description"`
	DateStart      time.Time      `json:"date_start"                   db:"date_start"`
	DateEnd        time.Time      `json:"date_end"                     db:"date_end"`
	Location       string         `json:"location"                     db:"location"`
	Address        string         `json:"address"                      db:"address"`
	CategoryID     int64          `json:"category_id"                  db:"category_id"`
	IsFree         bool           `json:"is_free"                      db:"is_free"`
	Price          *float64       `json:"price,omitempty"              db:"price"`
	ImageURL       *string        `json:"image_url,omitempty"          db:"image_url"`
	GPSLat         *float64       `json:"gps_lat,omitempty"            db:"gps_lat"`
	GPSLng         *float64       `json:"gps_lng,omitempty"            db:"gps_lng"`
	ContactName    *string        `json:"contact_name,omitempty"       db:"contact_name"`
	ContactEmail   *string        `json:"contact_email,omitempty"      db:"contact_email"`
	ContactPhone   *string        `json:"contact_phone,omitempty"      db:"contact_phone"`
	CreatorID      string         `json:"creator_id"                   db:"creator_id"`
	Status         EventStatus    `json:"status"                       db:"status"`
	ReviewedBy     *string        `json:"reviewed_by,omitempty"        db:"reviewed_by"`
	ReviewedAt     *time.Time     `json:"reviewed_at,omitempty"        db:"reviewed_at"`
	AploSyncStatus AploSyncStatus `json:"aplo_sync_status"             db:"aplo_sync_status"`
	AploEventID    *string        `json:"aplo_event_id,omitempty"      db:"aplo_event_id"`
	AploSyncError  *string        `json:"aplo_sync_error,omitempty"    db:"aplo_sync_error"`
	CommuneID      int64          `json:"commune_id"                   db:"commune_id"`
	CreatedAt      time.Time      `json:"created_at"                   db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"                   db:"updated_at"`
}

// CreateEventRequest represents parameters to create an Event. New events
// always start pending with APLO sync pending.
type CreateEventRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DateStart    time.Time `json:"date_start"`
	DateEnd      time.Time `json:"date_end"`
	Location     string    `json:"location"`
	Address      string    `json:"address"`
	CategoryID   int64     `json:"category_id"`
	IsFree       bool      `json:"is_free"`
	Price        *float64  `json:"price,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	GPSLat       *float64  `json:"gps_lat,omitempty"`
	GPSLng       *float64  `json:"gps_lng,omitempty"`
	ContactName  *string   `json:"contact_name,omitempty"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	CreatorID    string    `json:"creator_id"`
	CommuneID    int64     `json:"commune_id"`
}

// Validate validates CreateEventRequest.
func (r *CreateEventRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxEventTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if utf8.RuneCountInString(r.Address) > maxEventAddressLen {
		return errors.New("address cannot exceed 500 characters")
	}
	if r.DateStart.IsZero() || r.DateEnd.IsZero() {
		return errors.New("date_start and date_end are required")
	}
	if r.DateEnd.Before(r.DateStart) {
		return errors.New("date_end cannot be before date_start")
	}
	if r.CategoryID <= 0 {
		return errors.New("category_id is required")
	}
	if r.CommuneID <= 0 {
		return errors.New("commune_id is required")
	}
	if strings.TrimSpace(r.CreatorID) == "" {
		return errors.New("creator_id is required")
	}
	if !r.IsFree && (r.Price == nil || *r.Price < 0) {
		return errors.New("price is required for paid events and cannot be negative")
	}
	if r.GPSLat != nil && (*r.GPSLat < -90 || *r.GPSLat > 90) {
		return errors.New("gps_lat must be between -90 and 90")
	}
	if r.GPSLng != nil && (*r.GPSLng < -180 || *r.GPSLng > 180) {
		return errors.New("gps_lng must be between -180 and 180")
	}
	return nil
}

// UpdateEventRequest represents parameters to update an Event. Status and
// sync fields are managed through dedicated moderation/sync operations, not
// through generic updates.
type UpdateEventRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	DateStart    *time.Time `json:"date_start,omitempty"`
	DateEnd      *time.Time `json:"date_end,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Address      *string    `json:"address,omitempty"`
	CategoryID   *int64     `json:"category_id,omitempty"`
	IsFree       *bool      `json:"is_free,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	GPSLat       *float64   `json:"gps_lat,omitempty"`
	GPSLng       *float64   `json:"gps_lng,omitempty"`
	ContactName  *string    `json:"contact_name,omitempty"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	ContactPhone *string    `json:"contact_phone,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateEventRequest.
func (r *UpdateEventRequest) HasUpdates() bool {
	return r.Title != nil || r.Description != nil || r.DateStart != nil || r.DateEnd != nil ||
		r.Location != nil || r.Address != nil || r.CategoryID != nil || r.IsFree != nil ||
		r.Price != nil || r.ImageURL != nil || r.GPSLat != nil || r.GPSLng != nil ||
		r.ContactName != nil || r.ContactEmail != nil || r.ContactPhone != nil
}

// Validate validates UpdateEventRequest, ensuring at least one field is set and values are sane.
func (r *UpdateEventRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxEventTitleLen {
			return errors.New("title cannot exceed 255 characters")
		}
	}
	if r.DateStart != nil && r.DateEnd != nil && r.DateEnd.Before(*r.DateStart) {
		return errors.New("date_end cannot be before date_start")
	}
	if r.CategoryID != nil && *r.CategoryID <= 0 {
		return errors.New("category_id must be positive")
	}
	if r.Price != nil && *r.Price < 0 {
		return errors.New("price cannot be negative")
	}
	if r.GPSLat != nil && (*r.GPSLat < -90 || *r.GPSLat > 90) {
		return errors.New("gps_lat must be between -90 and 90")
	}
	if r.GPSLng != nil && (*r.GPSLng < -180 || *r.GPSLng > 180) {
		return errors.New("gps_lng must be between -180 and 180")
	}
	return nil
}

// EventsListOptions controls paging and filtering for listing events.
// Notes:
// - CommuneID and Status match exactly when set.
// - Results are ordered by created_at DESC (newest first).
type EventsListOptions struct {
	Limit     int
	Offset    int
	CommuneID *int64
	Status    *EventStatus
}

// EventStatusCounts aggregates a commune's events by moderation status for
// the dashboard view.
type EventStatusCounts struct {
	Pending  int `json:"pending"  db:"pending"`
	Approved int `json:"approved" db:"approved"`
	Rejected int `json:"rejected" db:"rejected"`
	Pushed   int `json:"pushed"   db:"pushed"`
}

// Total returns the total number of events across all statuses.
func (c EventStatusCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected + c.Pushed
}
