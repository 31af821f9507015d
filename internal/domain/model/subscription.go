package model

import (
	"errors"
	"strings"
	"time"
)

// SubscriptionStatus mirrors the payment processor's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// Valid reports whether the subscription status is supported.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCanceled, SubscriptionPastDue:
		return true
	default:
		return false
	}
}

// Subscription is a commune's billing subscription record. The payment
// processor owns the lifecycle; we keep a local mirror for entitlement
// checks and the admin view.
type Subscription struct {
	ID                 int64              `json:"id"                     db:"id"`
	CommuneID          int64              `json:"commune_id"             db:"commune_id"`
	ProcessorSubID     string             `json:"processor_sub_id"       db:"processor_sub_id"`
	Status             SubscriptionStatus `json:"status"                 db:"status"`
	PlanID             PlanID             `json:"plan_id"                db:"plan_id"`
	AmountMonthly      int                `json:"amount_monthly"         db:"amount_monthly"`
	Currency           string             `json:"currency"               db:"currency"`
	CurrentPeriodStart time.Time          `json:"current_period_start"   db:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"     db:"current_period_end"`
	CreatedAt          time.Time          `json:"created_at"             db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"             db:"updated_at"`
}

// CreateSubscriptionRequest represents parameters to record a subscription.
type CreateSubscriptionRequest struct {
	CommuneID          int64              `json:"commune_id"`
	ProcessorSubID     string             `json:"processor_sub_id"`
	Status             SubscriptionStatus `json:"status"`
	PlanID             PlanID             `json:"plan_id"`
	AmountMonthly      int                `json:"amount_monthly"`
	Currency           string             `json:"currency"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
}

// Validate validates CreateSubscriptionRequest.
func (r *CreateSubscriptionRequest) Validate() error {
	if r.CommuneID <= 0 {
		return errors.New("commune_id is required")
	}
	if strings.TrimSpace(r.ProcessorSubID) == "" {
		return errors.New("processor_sub_id is required")
	}
	if !r.Status.Valid() {
		return errors.New("invalid subscription status")
	}
	if _, ok := PlanByID(r.PlanID); !ok {
		return errors.New("unknown plan_id")
	}
	if r.AmountMonthly < 0 {
		return errors.New("amount_monthly cannot be negative")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return errors.New("currency is required")
	}
	return nil
}
