//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxCommuneNameLen = 255

// Commune represents a French municipal administrative unit, the tenant
// unit of the platform.
type Commune struct {
	ID         int64     `json:"id"         db:"id"`
	Name       string    `json:"name"       db:"name"`
	Population int       `json:"population" db:"population"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CreateCommuneRequest represents parameters to create a Commune.
type CreateCommuneRequest struct {
	Name       string `json:"name"`
	Population int    `json:"population"`
}

// Validate validates CreateCommuneRequest.
func (r *CreateCommuneRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxCommuneNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if r.Population < 0 {
		return errors.New("population cannot be negative")
	}
	return nil
}

// UpdateCommuneRequest represents parameters to update a Commune.
type UpdateCommuneRequest struct {
	Name       *string `json:"name,omitempty"`
	Population *int    `json:"population,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateCommuneRequest.
func (r *UpdateCommuneRequest) HasUpdates() bool {
	return r.Name != nil || r.Population != nil
}

// Validate validates UpdateCommuneRequest, ensuring at least one field is set.
func (r *UpdateCommuneRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if n == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(n) > maxCommuneNameLen {
			return errors.New("name cannot exceed 255 characters")
		}
	}
	if r.Population != nil && *r.Population < 0 {
		return errors.New("population cannot be negative")
	}
	return nil
}
