package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxCategoryNameLen = 255

// Category classifies event listings (concerts, markets, sports, ...).
type Category struct {
	ID          int64     `json:"id"                    db:"id"`
	Name        string    `json:"name"                  db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at"            db:"created_at"`
}

// CreateCategoryRequest represents parameters to create a Category.
type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Validate validates CreateCategoryRequest.
func (r *CreateCategoryRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	return nil
}
