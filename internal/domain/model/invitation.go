package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
)

// TeamInvitation lets a commune admin invite a colleague by email. The token
// is single-use and expires.
type TeamInvitation struct {
	ID        int64           `json:"id"         db:"id"`
	Email     string          `json:"email"      db:"email"`
	CommuneID int64           `json:"commune_id" db:"commune_id"`
	Role      domainauth.Role `json:"role"       db:"role"`
	Token     string          `json:"token"      db:"token"`
	ExpiresAt time.Time       `json:"expires_at" db:"expires_at"`
	Accepted  bool            `json:"accepted"   db:"accepted"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Expired reports whether the invitation has passed its expiry at the given time.
func (i TeamInvitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// CreateInvitationRequest represents parameters to create a TeamInvitation.
type CreateInvitationRequest struct {
	Email     string          `json:"email"`
	CommuneID int64           `json:"commune_id"`
	Role      domainauth.Role `json:"role"`
}

// Validate validates CreateInvitationRequest.
func (r *CreateInvitationRequest) Validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is not a valid address")
	}
	if r.CommuneID <= 0 {
		return errors.New("commune_id is required")
	}
	if !r.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
