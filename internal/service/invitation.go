package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/data"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// DefaultInvitationTTL is how long an invitation stays usable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// InvitationServiceOptions groups dependencies for InvitationService.
type InvitationServiceOptions struct {
	Repo     core.InvitationRepository // Required: invitation repository
	Profiles core.ProfileRepository    // Required: profile provisioning on accept
	TTL      time.Duration             // Optional: defaults to DefaultInvitationTTL
	Time     data.TimeProvider         // Optional: defaults to real time
	Logger   *slog.Logger              // Optional: structured logger
}

// InvitationService provides business logic for team invitations: an admin
// invites a colleague by email into a commune; accepting the single-use
// token provisions the invitee's profile.
type InvitationService struct {
	repo     core.InvitationRepository
	profiles core.ProfileRepository
	ttl      time.Duration
	time     data.TimeProvider
	logger   *slog.Logger
}

// NewInvitationService constructs a new InvitationService with validation.
func NewInvitationService(opts InvitationServiceOptions) (*InvitationService, error) {
	if opts.Repo == nil {
		return nil, errors.New("InvitationRepository is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	timeProvider := opts.Time
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "invitation_service")
	}

	return &InvitationService{
		repo:     opts.Repo,
		profiles: opts.Profiles,
		ttl:      ttl,
		time:     timeProvider,
		logger:   logger,
	}, nil
}

// Create issues a new invitation with a fresh single-use token.
func (s *InvitationService) Create(
	ctx context.Context,
	req *model.CreateInvitationRequest,
) (*model.TeamInvitation, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	inv, err := s.repo.Create(ctx, core.CreateInvitationParams{
		Req:       req,
		Token:     uuid.New().String(),
		ExpiresAt: s.time.Now().Add(s.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "invitation created",
			"invitation_id", inv.ID, "commune_id", inv.CommuneID, "role", inv.Role)
	}
	return inv, nil
}

// Resolve returns the invitation behind a token so the public invitation
// view can show who is being invited where. Expired or used tokens resolve
// to NotFound.
func (s *InvitationService) Resolve(ctx context.Context, token string) (*model.TeamInvitation, error) {
	inv, err := s.lookupUsable(ctx, token)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Accept consumes the invitation token and provisions a profile for the
// invited user with the invitation's commune and role.
func (s *InvitationService) Accept(ctx context.Context, token, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}

	inv, err := s.lookupUsable(ctx, token)
	if err != nil {
		return nil, err
	}

	accepted, err := s.repo.MarkAccepted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	if !accepted {
		// Someone else consumed the token between lookup and accept.
		return nil, apperrors.Conflict("invitation has already been used")
	}

	profile, err := s.provision(ctx, inv, userID)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "invitation accepted",
			"invitation_id", inv.ID, "user_id", userID, "commune_id", inv.CommuneID)
	}
	return profile, nil
}

// ListByCommune returns a commune's invitations, newest first.
func (s *InvitationService) ListByCommune(ctx context.Context, communeID int64) ([]*model.TeamInvitation, error) {
	invs, err := s.repo.ListByCommune(ctx, communeID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invs, nil
}

// Revoke deletes an invitation before it is used.
func (s *InvitationService) Revoke(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("invitation %d not found", id)
	}
	return nil
}

func (s *InvitationService) lookupUsable(ctx context.Context, token string) (*model.TeamInvitation, error) {
	if token == "" {
		return nil, apperrors.Validation("token is required")
	}

	inv, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Accepted {
		return nil, apperrors.NotFound("invitation has already been used")
	}
	if inv.Expired(s.time.Now()) {
		return nil, apperrors.NotFound("invitation has expired")
	}
	return inv, nil
}

// provision creates or updates the invitee's profile with the invitation's
// commune and role.
func (s *InvitationService) provision(
	ctx context.Context,
	inv *model.TeamInvitation,
	userID string,
) (*model.Profile, error) {
	communeID := inv.CommuneID
	role := inv.Role

	existing, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		profile, updateErr := s.profiles.Update(ctx, existing.UserID, model.UpdateProfileRequest{
			Role:      &role,
			CommuneID: &communeID,
		})
		if updateErr != nil {
			return nil, fmt.Errorf("assign commune: %w", updateErr)
		}
		return profile, nil
	case apperrors.IsNotFound(err):
		profile, createErr := s.profiles.Create(ctx, &model.CreateProfileRequest{
			UserID:    userID,
			Email:     inv.Email,
			Role:      role,
			CommuneID: &communeID,
		})
		if createErr != nil {
			return nil, fmt.Errorf("provision profile: %w", createErr)
		}
		return profile, nil
	default:
		return nil, fmt.Errorf("lookup profile: %w", err)
	}
}
