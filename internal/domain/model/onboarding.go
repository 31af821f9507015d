package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const maxOnboardingStep = 6

// OnboardingProgress tracks a new commune account through the guided setup
// flow. Step payloads are opaque JSON blobs owned by the front-end; the
// server stores and returns them verbatim.
type OnboardingProgress struct {
	ID               string          `json:"id"                          db:"id"`
	UserID           string          `json:"user_id"                     db:"user_id"`
	Step             int             `json:"step"                        db:"step"`
	Completed        bool            `json:"completed"                   db:"completed"`
	AdminData        json.RawMessage `json:"admin_data,omitempty"        db:"admin_data"`
	CommuneData      json.RawMessage `json:"commune_data,omitempty"      db:"commune_data"`
	KYCData          json.RawMessage `json:"kyc_data,omitempty"          db:"kyc_data"`
	LegalData        json.RawMessage `json:"legal_data,omitempty"        db:"legal_data"`
	TeamData         json.RawMessage `json:"team_data,omitempty"         db:"team_data"`
	SubscriptionData json.RawMessage `json:"subscription_data,omitempty" db:"subscription_data"`
	CreatedAt        time.Time       `json:"created_at"                  db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"                  db:"updated_at"`
}

// UpsertOnboardingRequest represents parameters to create or update a user's
// onboarding progress. Nil payloads leave existing blobs untouched.
type UpsertOnboardingRequest struct {
	UserID           string          `json:"user_id"`
	Step             *int            `json:"step,omitempty"`
	Completed        *bool           `json:"completed,omitempty"`
	AdminData        json.RawMessage `json:"admin_data,omitempty"`
	CommuneData      json.RawMessage `json:"commune_data,omitempty"`
	KYCData          json.RawMessage `json:"kyc_data,omitempty"`
	LegalData        json.RawMessage `json:"legal_data,omitempty"`
	TeamData         json.RawMessage `json:"team_data,omitempty"`
	SubscriptionData json.RawMessage `json:"subscription_data,omitempty"`
}

// Validate validates UpsertOnboardingRequest.
func (r *UpsertOnboardingRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if r.Step != nil && (*r.Step < 0 || *r.Step > maxOnboardingStep) {
		return errors.New("step is out of range")
	}
	for _, blob := range []json.RawMessage{
		r.AdminData, r.CommuneData, r.KYCData, r.LegalData, r.TeamData, r.SubscriptionData,
	} {
		if len(blob) > 0 && !json.Valid(blob) {
			return errors.New("step payloads must be valid JSON")
		}
	}
	return nil
}
