package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is a supported application role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (OIDC sub)
	Email     string
	Groups    []string
	CreatedAt time.Time // account creation time from the IdP, zero when unknown
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
// Role here is the provisional group-mapped role assigned at login; the
// authoritative role lives on the user's profile and is merged by the
// auth-state watcher.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin returns true if the session role is admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// SessionEventType identifies the kind of session change notification.
type SessionEventType string

const (
	// SessionSignedIn is emitted when a session becomes active.
	SessionSignedIn SessionEventType = "signed_in"
	// SessionSignedOut is emitted when a session ends (sign-out or expiry).
	SessionSignedOut SessionEventType = "signed_out"
)

// SessionEvent is a change notification emitted by the session store.
// Session is nil for signed-out events.
type SessionEvent struct {
	Type    SessionEventType `json:"type"`
	Session *Session         `json:"session,omitempty"`
}
