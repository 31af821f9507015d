package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/data"
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/mocks"
)

// fakeInvitationRepo is a hand-written fake with pluggable behavior per method.
type fakeInvitationRepo struct {
	createFn        func(ctx context.Context, params core.CreateInvitationParams) (*model.TeamInvitation, error)
	getByTokenFn    func(ctx context.Context, token string) (*model.TeamInvitation, error)
	listByCommuneFn func(ctx context.Context, communeID int64) ([]*model.TeamInvitation, error)
	markAcceptedFn  func(ctx context.Context, token string) (bool, error)
	deleteFn        func(ctx context.Context, id int64) (bool, error)
	deleteExpiredFn func(ctx context.Context, batchSize int) (int64, error)
}

func (f *fakeInvitationRepo) Create(ctx context.Context, params core.CreateInvitationParams) (*model.TeamInvitation, error) {
	if f.createFn == nil {
		panic("not implemented")
	}
	return f.createFn(ctx, params)
}

func (f *fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*model.TeamInvitation, error) {
	if f.getByTokenFn == nil {
		panic("not implemented")
	}
	return f.getByTokenFn(ctx, token)
}

func (f *fakeInvitationRepo) ListByCommune(ctx context.Context, communeID int64) ([]*model.TeamInvitation, error) {
	if f.listByCommuneFn == nil {
		panic("not implemented")
	}
	return f.listByCommuneFn(ctx, communeID)
}

func (f *fakeInvitationRepo) MarkAccepted(ctx context.Context, token string) (bool, error) {
	if f.markAcceptedFn == nil {
		panic("not implemented")
	}
	return f.markAcceptedFn(ctx, token)
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if f.deleteFn == nil {
		panic("not implemented")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeInvitationRepo) DeleteExpired(ctx context.Context, batchSize int) (int64, error) {
	if f.deleteExpiredFn == nil {
		panic("not implemented")
	}
	return f.deleteExpiredFn(ctx, batchSize)
}

var _ core.InvitationRepository = (*fakeInvitationRepo)(nil)

var invitationTestNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func usableInvitation(token string) *model.TeamInvitation {
	return &model.TeamInvitation{
		ID:        1,
		Email:     "collegue@saint-andre.fr",
		CommuneID: 7,
		Role:      domainauth.RoleUser,
		Token:     token,
		ExpiresAt: invitationTestNow.Add(24 * time.Hour),
	}
}

func newInvitationService(t *testing.T, repo *fakeInvitationRepo) (*mocks.MockProfileRepository, *InvitationService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	profiles := mocks.NewMockProfileRepository(ctrl)
	service, err := NewInvitationService(InvitationServiceOptions{
		Repo:     repo,
		Profiles: profiles,
		Time:     data.NewFixedTimeProvider(invitationTestNow),
	})
	require.NoError(t, err)

	return profiles, service
}

func TestInvitationService_Create_Success(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		createFn: func(_ context.Context, params core.CreateInvitationParams) (*model.TeamInvitation, error) {
			assert.NotEmpty(t, params.Token)
			assert.Equal(t, invitationTestNow.Add(DefaultInvitationTTL), params.ExpiresAt)
			inv := usableInvitation(params.Token)
			inv.Email = params.Req.Email
			return inv, nil
		},
	}
	_, service := newInvitationService(t, repo)

	inv, err := service.Create(context.Background(), &model.CreateInvitationRequest{
		Email:     "collegue@saint-andre.fr",
		CommuneID: 7,
		Role:      domainauth.RoleUser,
	})

	require.NoError(t, err)
	assert.Equal(t, "collegue@saint-andre.fr", inv.Email)
	assert.NotEmpty(t, inv.Token)
}

func TestInvitationService_Create_InvalidEmail(t *testing.T) {
	t.Parallel()
	_, service := newInvitationService(t, &fakeInvitationRepo{})

	_, err := service.Create(context.Background(), &model.CreateInvitationRequest{
		Email:     "not-an-address",
		CommuneID: 7,
		Role:      domainauth.RoleUser,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestInvitationService_Resolve_Usable(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		getByTokenFn: func(_ context.Context, token string) (*model.TeamInvitation, error) {
			return usableInvitation(token), nil
		},
	}
	_, service := newInvitationService(t, repo)

	inv, err := service.Resolve(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "collegue@saint-andre.fr", inv.Email)
}

func TestInvitationService_Resolve_ExpiredToken(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		getByTokenFn: func(_ context.Context, token string) (*model.TeamInvitation, error) {
			inv := usableInvitation(token)
			inv.ExpiresAt = invitationTestNow.Add(-time.Hour)
			return inv, nil
		},
	}
	_, service := newInvitationService(t, repo)

	_, err := service.Resolve(context.Background(), "tok-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestInvitationService_Resolve_UsedToken(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		getByTokenFn: func(_ context.Context, token string) (*model.TeamInvitation, error) {
			inv := usableInvitation(token)
			inv.Accepted = true
			return inv, nil
		},
	}
	_, service := newInvitationService(t, repo)

	_, err := service.Resolve(context.Background(), "tok-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "already been used")
}

func TestInvitationService_Resolve_EmptyToken(t *testing.T) {
	t.Parallel()
	_, service := newInvitationService(t, &fakeInvitationRepo{})

	_, err := service.Resolve(context.Background(), "")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestInvitationService_Accept_ProvisionsNewProfile(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		getByTokenFn: func(_ context.Context, token string) (*model.TeamInvitation, error) {
			return usableInvitation(token), nil
		},
		markAcceptedFn: func(_ context.Context, token string) (bool, error) {
			assert.Equal(t, "tok-1", token)
			return true, nil
		},
	}
	profiles, service := newInvitationService(t, repo)
	ctx := context.Background()

	profiles.EXPECT().
		GetByUserID(ctx, "user-new").
		Return(nil, apperrors.NotFound("profile not found")).
		Times(1)
	profiles.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
			assert.Equal(t, "user-new", req.UserID)
			assert.Equal(t, "collegue@saint-andre.fr", req.Email)
			assert.Equal(t, domainauth.RoleUser, req.Role)
			require.NotNil(t, req.CommuneID)
			assert.Equal(t, int64(7), *req.CommuneID)
			return &model.Profile{UserID: req.UserID, Email: req.Email, Role: req.Role, CommuneID: req.CommuneID}, nil
		}).
		Times(1)

	profile, err := service.Accept(ctx, "tok-1", "user-new")

	require.NoError(t, err)
	assert.Equal(t, "user-new", profile.UserID)
	require.NotNil(t, profile.CommuneID)
	assert.Equal(t, int64(7), *profile.CommuneID)
}

func TestInvitationService_Accept_UpdatesExistingProfile(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		getByTokenFn: func(_ context.Context, token string) (*model.TeamInvitation, error) {
			inv := usableInvitation(token)
			inv.Role = domainauth.RoleAdmin
			return inv, nil
		},
		markAcceptedFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
	}
	profiles, service := newInvitationService(t, repo)
	ctx := context.Background()

	profiles.EXPECT().
		GetByUserID(ctx, "user-existing").
		Return(&model.Profile{UserID: "user-existing", Role: domainauth.RoleUser}, nil).
		Times(1)
	profiles.EXPECT().
		Update(ctx, "user-existing", gomock.Any()).
		DoAndReturn(func(_ context.Context, userID string, req model.UpdateProfileRequest) (*model.Profile, error) {
			require.NotNil(t, req.Role)
			assert.Equal(t, domainauth.RoleAdmin, *req.Role)
			require.NotNil(t, req.CommuneID)
			assert.Equal(t, int64(7), *req.CommuneID)
			return &model.Profile{UserID: userID, Role: *req.Role, CommuneID: req.CommuneID}, nil
		}).
		Times(1)

	profile, err := service.Accept(ctx, "tok-1", "user-existing")

	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)
}

func TestInvitationService_Accept_RaceLosesToConcurrentAccept(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		getByTokenFn: func(_ context.Context, token string) (*model.TeamInvitation, error) {
			return usableInvitation(token), nil
		},
		markAcceptedFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
	}
	_, service := newInvitationService(t, repo)

	_, err := service.Accept(context.Background(), "tok-1", "user-new")

	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestInvitationService_Accept_MissingUserID(t *testing.T) {
	t.Parallel()
	_, service := newInvitationService(t, &fakeInvitationRepo{})

	_, err := service.Accept(context.Background(), "tok-1", "")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestInvitationService_Revoke_NotFound(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return false, nil },
	}
	_, service := newInvitationService(t, repo)

	err := service.Revoke(context.Background(), 42)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInvitationService_ListByCommune_RepoFailure(t *testing.T) {
	t.Parallel()
	repo := &fakeInvitationRepo{
		listByCommuneFn: func(_ context.Context, _ int64) ([]*model.TeamInvitation, error) {
			return nil, errors.New("db down")
		},
	}
	_, service := newInvitationService(t, repo)

	_, err := service.ListByCommune(context.Background(), 7)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list invitations")
}
