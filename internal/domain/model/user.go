package model

import (
	"errors"
	"time"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
)

// Profile is the extended user record stored alongside the commune it
// belongs to. It is read-only from the auth flow's perspective; rows are
// provisioned during onboarding or invitation acceptance.
type Profile struct {
	UserID    string          `json:"user_id"              db:"user_id"`
	Email     string          `json:"email"                db:"email"`
	Role      domainauth.Role `json:"role"                 db:"role"`
	CommuneID *int64          `json:"commune_id,omitempty" db:"commune_id"`
	Commune   *Commune        `json:"commune,omitempty"    db:"-"`
	CreatedAt time.Time       `json:"created_at"           db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"           db:"updated_at"`
}

// CreateProfileRequest carries the fields needed to provision a profile row.
type CreateProfileRequest struct {
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	Role      domainauth.Role `json:"role"`
	CommuneID *int64          `json:"commune_id,omitempty"`
}

// Validate checks the create profile request fields.
func (r *CreateProfileRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if !r.Role.Valid() {
		return errors.New("role must be admin or user")
	}
	return nil
}

// UpdateProfileRequest contains optional fields for updating a profile.
// Nil pointers leave the column unchanged.
type UpdateProfileRequest struct {
	Role      *domainauth.Role `json:"role,omitempty"`
	CommuneID *int64           `json:"commune_id,omitempty"`
}

// Validate checks the update profile request fields.
func (r *UpdateProfileRequest) Validate() error {
	if r.Role != nil && !r.Role.Valid() {
		return errors.New("role must be admin or user")
	}
	return nil
}

// User is the application-level view model merging a session identity with
// its profile. It is constructed fresh on every session change and replaced
// atomically; it is never partially mutated in place.
type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Role        domainauth.Role `json:"role"`
	CommuneID   *int64          `json:"commune_id,omitempty"`
	CommuneName *string         `json:"commune_name,omitempty"`
	Commune     *Commune        `json:"commune,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewUser merges a session with its resolved profile. The role defaults to
// user whenever the profile carries none; commune fields are copied from the
// profile's nested commune record when present.
func NewUser(sess domainauth.Session, profile *Profile) User {
	u := FallbackUser(sess)
	if profile == nil {
		return u
	}
	if profile.Role.Valid() {
		u.Role = profile.Role
	}
	u.CommuneID = profile.CommuneID
	if profile.Commune != nil {
		c := *profile.Commune
		u.Commune = &c
		u.CommuneName = &c.Name
	}
	return u
}

// FallbackUser builds the minimal-role user used when profile resolution
// fails or finds no row. Role is always user and no commune fields are set.
func FallbackUser(sess domainauth.Session) User {
	updated := sess.UpdatedAt
	if updated.IsZero() {
		updated = sess.CreatedAt
	}
	return User{
		ID:        sess.UserID,
		Email:     sess.Email,
		Role:      domainauth.RoleUser,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: updated,
	}
}

// IsAdmin returns true if the user's merged role is admin.
func (u User) IsAdmin() bool { return u.Role == domainauth.RoleAdmin }

// AuthState is the process-wide authentication state: the merged user (nil
// when signed out) and a loading flag that is true from construction until
// the first session-change merge completes.
type AuthState struct {
	User    *User `json:"user,omitempty"`
	Loading bool  `json:"loading"`
}
