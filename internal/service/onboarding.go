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

// OnboardingServiceOptions groups dependencies for OnboardingService.
type OnboardingServiceOptions struct {
	Repo   core.OnboardingRepository // Required: onboarding repository
	Logger *slog.Logger              // Optional: structured logger
}

// OnboardingService provides business logic for the guided setup flow of
// new commune accounts. Step payloads are opaque JSON owned by the client.
type OnboardingService struct {
	repo   core.OnboardingRepository
	logger *slog.Logger
}

// NewOnboardingService constructs a new OnboardingService with validation.
func NewOnboardingService(opts OnboardingServiceOptions) (*OnboardingService, error) {
	if opts.Repo == nil {
		return nil, errors.New("OnboardingRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "onboarding_service")
	}

	return &OnboardingService{repo: opts.Repo, logger: logger}, nil
}

// Get returns the user's onboarding progress, or nil when they have not
// started yet.
func (s *OnboardingService) Get(ctx context.Context, userID string) (*model.OnboardingProgress, error) {
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}

	progress, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get onboarding progress: %w", err)
	}
	return progress, nil
}

// Save upserts the user's onboarding progress. The actor may only write
// their own record; the route layer passes the session user id.
func (s *OnboardingService) Save(
	ctx context.Context,
	userID string,
	req *model.UpsertOnboardingRequest,
) (*model.OnboardingProgress, error) {
	req.UserID = userID
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	progress, err := s.repo.Upsert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("save onboarding progress: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "onboarding progress saved",
			"user_id", userID, "step", progress.Step, "completed", progress.Completed)
	}
	return progress, nil
}

// Reset removes the user's onboarding progress.
func (s *OnboardingService) Reset(ctx context.Context, userID string) error {
	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("reset onboarding progress: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("no onboarding progress for user %q", userID)
	}
	return nil
}
