package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/mocks"
)

// newProfileService creates mock repositories and a service for testing.
func newProfileService(t *testing.T) (*mocks.MockProfileRepository, *mocks.MockNotificationRepository, *ProfileService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockProfileRepository(ctrl)
	notifRepo := mocks.NewMockNotificationRepository(ctrl)

	service := MustNewProfileService(ProfileServiceOptions{
		Repo:          repo,
		Notifications: notifRepo,
	})

	return repo, notifRepo, service
}

func TestProfileService_Resolve_Found(t *testing.T) {
	t.Parallel()
	repo, _, service := newProfileService(t)
	ctx := context.Background()

	repo.EXPECT().
		GetByUserID(ctx, "user-123").
		Return(&model.Profile{UserID: "user-123", Role: domainauth.RoleAdmin}, nil).
		Times(1)

	profile, err := service.Resolve(ctx, "user-123")

	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)
}

func TestProfileService_Resolve_MissingRowIsNotAnError(t *testing.T) {
	t.Parallel()
	repo, _, service := newProfileService(t)
	ctx := context.Background()

	repo.EXPECT().
		GetByUserID(ctx, "user-123").
		Return(nil, apperrors.NotFound("profile not found")).
		Times(1)

	profile, err := service.Resolve(ctx, "user-123")

	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfileService_Resolve_EmptyUserID(t *testing.T) {
	t.Parallel()
	_, _, service := newProfileService(t)

	profile, err := service.Resolve(context.Background(), "")

	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfileService_Resolve_InfrastructureFailureSurfaces(t *testing.T) {
	t.Parallel()
	repo, _, service := newProfileService(t)
	ctx := context.Background()

	repo.EXPECT().
		GetByUserID(ctx, "user-123").
		Return(nil, errors.New("connection refused")).
		Times(1)

	profile, err := service.Resolve(ctx, "user-123")

	require.Error(t, err)
	assert.Nil(t, profile)
	assert.Contains(t, err.Error(), "resolve profile")
}

func TestProfileService_EnsureProfile_ExistingRow(t *testing.T) {
	t.Parallel()
	repo, _, service := newProfileService(t)
	ctx := context.Background()

	existing := &model.Profile{UserID: "user-123", Role: domainauth.RoleAdmin}
	repo.EXPECT().GetByUserID(ctx, "user-123").Return(existing, nil).Times(1)

	profile, err := service.EnsureProfile(ctx, "user-123", "maire@saint-andre.fr", domainauth.RoleUser)

	require.NoError(t, err)
	// The stored role wins over the session's provisional one.
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)
}

func TestProfileService_EnsureProfile_CreatesAndNotifies(t *testing.T) {
	t.Parallel()
	repo, notifRepo, service := newProfileService(t)
	ctx := context.Background()

	repo.EXPECT().
		GetByUserID(ctx, "user-new").
		Return(nil, apperrors.NotFound("profile not found")).
		Times(1)
	repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
			assert.Equal(t, "user-new", req.UserID)
			assert.Equal(t, "maire@saint-andre.fr", req.Email)
			assert.Equal(t, domainauth.RoleUser, req.Role)
			return &model.Profile{UserID: req.UserID, Email: req.Email, Role: req.Role}, nil
		}).
		Times(1)
	notifRepo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateNotificationRequest) (*model.AdminNotification, error) {
			assert.Equal(t, model.NotificationUserRegistered, req.Type)
			return &model.AdminNotification{ID: 1, Type: req.Type}, nil
		}).
		Times(1)

	profile, err := service.EnsureProfile(ctx, "user-new", "maire@saint-andre.fr", domainauth.RoleUser)

	require.NoError(t, err)
	assert.Equal(t, "user-new", profile.UserID)
}

func TestProfileService_EnsureProfile_ConcurrentCreateFallsBackToLookup(t *testing.T) {
	t.Parallel()
	repo, _, service := newProfileService(t)
	ctx := context.Background()

	winner := &model.Profile{UserID: "user-new", Role: domainauth.RoleUser}
	gomock.InOrder(
		repo.EXPECT().
			GetByUserID(ctx, "user-new").
			Return(nil, apperrors.NotFound("profile not found")),
		repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(nil, apperrors.Conflict("profile already exists")),
		repo.EXPECT().
			GetByUserID(ctx, "user-new").
			Return(winner, nil),
	)

	profile, err := service.EnsureProfile(ctx, "user-new", "maire@saint-andre.fr", domainauth.RoleUser)

	require.NoError(t, err)
	assert.Equal(t, winner, profile)
}

func TestProfileService_Update_InvalidRole(t *testing.T) {
	t.Parallel()
	_, _, service := newProfileService(t)

	bad := domainauth.Role("owner")
	_, err := service.Update(context.Background(), "user-123", model.UpdateProfileRequest{Role: &bad})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProfileService_Delete_NotFound(t *testing.T) {
	t.Parallel()
	repo, _, service := newProfileService(t)
	ctx := context.Background()

	repo.EXPECT().Delete(ctx, "user-missing").Return(false, nil).Times(1)

	err := service.Delete(ctx, "user-missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
