package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/communeo/communeo-api/internal/core"
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Repo          core.ProfileRepository      // Required: profile repository
	Notifications core.NotificationRepository // Optional: emits user_registered rows
	Logger        *slog.Logger                // Optional: structured logger
}

// ProfileService provides business logic for user profiles. Resolve is the
// single profile lookup used by the auth-state watcher; its contract is
// (profile, nil) on success, (nil, nil) on absence, (nil, err) only on
// infrastructure failures.
type ProfileService struct {
	repo          core.ProfileRepository
	notifications core.NotificationRepository
	logger        *slog.Logger
}

// NewProfileService constructs a new ProfileService with validation.
func NewProfileService(opts ProfileServiceOptions) (*ProfileService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ProfileRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "profile_service")
		logger.Debug("ProfileService initialized")
	}

	return &ProfileService{
		repo:          opts.Repo,
		notifications: opts.Notifications,
		logger:        logger,
	}, nil
}

// MustNewProfileService constructs a new ProfileService and panics on error.
func MustNewProfileService(opts ProfileServiceOptions) *ProfileService {
	svc, err := NewProfileService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Resolve looks up a profile by user id with the commune joined. A missing
// profile is not an error: callers fall back to a minimal-role user.
func (s *ProfileService) Resolve(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, nil
	}

	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve profile: %w", err)
	}
	return profile, nil
}

// EnsureProfile returns the user's profile, creating one with the given role
// when none exists yet. New registrations produce an admin notification.
func (s *ProfileService) EnsureProfile(
	ctx context.Context,
	userID, email string,
	role domainauth.Role,
) (*model.Profile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	created, err := s.repo.Create(ctx, &model.CreateProfileRequest{
		UserID: userID,
		Email:  email,
		Role:   role,
	})
	if err != nil {
		// A concurrent login may have created the row between lookup and insert.
		if apperrors.IsConflict(err) {
			return s.repo.GetByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "profile provisioned", "user_id", userID, "role", role)
	}
	s.notifyRegistered(ctx, created)

	return created, nil
}

// GetByUserID retrieves a profile by user id, returning NotFound when absent.
func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Update applies a partial update to a profile (role and commune assignment).
func (s *ProfileService) Update(
	ctx context.Context,
	userID string,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	profile, err := s.repo.Update(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "profile updated", "user_id", userID)
	}
	return profile, nil
}

// List returns profiles with simple paging.
func (s *ProfileService) List(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	profiles, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Delete removes a profile. Returns NotFound when the user does not exist.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("profile %q not found", userID)
	}
	return nil
}

func (s *ProfileService) notifyRegistered(ctx context.Context, profile *model.Profile) {
	if s.notifications == nil || profile == nil {
		return
	}
	_, err := s.notifications.Create(ctx, &model.CreateNotificationRequest{
		Type:    model.NotificationUserRegistered,
		Title:   "New user registered",
		Message: fmt.Sprintf("%s signed in for the first time", profile.Email),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "user_registered notification failed",
			"user_id", profile.UserID, "error", err)
	}
}
