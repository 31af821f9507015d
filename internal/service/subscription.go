package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// SubscriptionServiceOptions groups dependencies for SubscriptionService.
type SubscriptionServiceOptions struct {
	Repo   core.SubscriptionRepository // Required: subscription repository
	Logger *slog.Logger                // Optional: structured logger
}

// SubscriptionService provides business logic for billing subscriptions.
// The payment processor owns the subscription lifecycle; this service keeps
// the local mirror used for entitlement checks and exposes the static plan
// table for the hosted checkout.
type SubscriptionService struct {
	repo   core.SubscriptionRepository
	logger *slog.Logger
}

// NewSubscriptionService constructs a new SubscriptionService with validation.
func NewSubscriptionService(opts SubscriptionServiceOptions) (*SubscriptionService, error) {
	if opts.Repo == nil {
		return nil, errors.New("SubscriptionRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "subscription_service")
	}

	return &SubscriptionService{repo: opts.Repo, logger: logger}, nil
}

// Plans returns the static billing plan table.
func (s *SubscriptionService) Plans() []model.Plan {
	return model.Plans()
}

// PlanForPopulation returns the plan tier covering the given population.
func (s *SubscriptionService) PlanForPopulation(population int) model.Plan {
	return model.PlanForPopulation(population)
}

// Record stores a subscription mirror row. Admin only at the route level.
func (s *SubscriptionService) Record(
	ctx context.Context,
	req *model.CreateSubscriptionRequest,
) (*model.Subscription, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	sub, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("record subscription: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "subscription recorded",
			"subscription_id", sub.ID, "commune_id", sub.CommuneID, "plan_id", sub.PlanID)
	}
	return sub, nil
}

// GetByID retrieves a subscription by its ID.
func (s *SubscriptionService) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ActiveForCommune returns the commune's active subscription, or nil when
// the commune has none.
func (s *SubscriptionService) ActiveForCommune(ctx context.Context, communeID int64) (*model.Subscription, error) {
	sub, err := s.repo.GetActiveByCommune(ctx, communeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("active subscription: %w", err)
	}
	return sub, nil
}

// List returns subscriptions with simple paging.
func (s *SubscriptionService) List(ctx context.Context, limit, offset int) ([]*model.Subscription, error) {
	subs, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateStatus transitions a subscription's status.
func (s *SubscriptionService) UpdateStatus(
	ctx context.Context,
	id int64,
	status model.SubscriptionStatus,
) (*model.Subscription, error) {
	if !status.Valid() {
		return nil, apperrors.Validationf("invalid subscription status %q", status)
	}

	sub, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update subscription status: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "subscription status updated",
			"subscription_id", id, "status", status)
	}
	return sub, nil
}
