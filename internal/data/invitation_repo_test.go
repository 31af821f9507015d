package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/core"
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/testutil"
)

func invitationParams(communeID int64, token string, expiresAt time.Time) core.CreateInvitationParams {
	return core.CreateInvitationParams{
		Req: &model.CreateInvitationRequest{
			Email:     "Adjoint@Example.org",
			CommuneID: communeID,
			Role:      domainauth.RoleUser,
		},
		Token:     token,
		ExpiresAt: expiresAt,
	}
}

func TestInvitationRepo_CreateAndGetByToken(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewInvitationRepo(db)
		commune := createTestCommune(t, db, 800)

		expiry := time.Now().Add(72 * time.Hour).UTC()
		inv, err := repo.Create(ctx, invitationParams(commune.ID, "tok-abc", expiry))
		require.NoError(t, err)
		require.NotZero(t, inv.ID)
		assert.Equal(t, "adjoint@example.org", inv.Email, "email normalizes to lowercase")
		assert.False(t, inv.Accepted)
		assert.Equal(t, domainauth.RoleUser, inv.Role)

		got, err := repo.GetByToken(ctx, "tok-abc")
		require.NoError(t, err)
		assert.Equal(t, inv.ID, got.ID)
		assert.False(t, got.Expired(time.Now()))

		_, err = repo.GetByToken(ctx, "tok-unknown")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestInvitationRepo_MarkAcceptedIsSingleUse(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewInvitationRepo(db)
		commune := createTestCommune(t, db, 800)

		_, err := repo.Create(ctx, invitationParams(commune.ID, "tok-once", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		ok, err := repo.MarkAccepted(ctx, "tok-once")
		require.NoError(t, err)
		assert.True(t, ok)

		// second accept fails, as does an unknown token
		ok, err = repo.MarkAccepted(ctx, "tok-once")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.MarkAccepted(ctx, "tok-nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInvitationRepo_ListByCommune(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewInvitationRepo(db)
		communeA := createTestCommune(t, db, 800)
		communeB := createTestCommune(t, db, 800)

		_, err := repo.Create(ctx, invitationParams(communeA.ID, "tok-a1", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
		newest, err := repo.Create(ctx, invitationParams(communeA.ID, "tok-a2", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		_, err = repo.Create(ctx, invitationParams(communeB.ID, "tok-b1", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		list, err := repo.ListByCommune(ctx, communeA.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newest.ID, list[0].ID, "newest invitation first")
	})
}

func TestInvitationRepo_DeleteExpiredKeepsAcceptedRows(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewInvitationRepo(db)
		commune := createTestCommune(t, db, 800)

		past := time.Now().Add(-time.Hour).UTC()
		_, err := repo.Create(ctx, invitationParams(commune.ID, "tok-stale", past))
		require.NoError(t, err)
		_, err = repo.Create(ctx, invitationParams(commune.ID, "tok-used", past))
		require.NoError(t, err)
		_, err = repo.Create(ctx, invitationParams(commune.ID, "tok-live", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		// an accepted invitation past expiry is kept for the audit trail
		ok, err := repo.MarkAccepted(ctx, "tok-used")
		require.NoError(t, err)
		require.True(t, ok)

		deleted, err := repo.DeleteExpired(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = repo.GetByToken(ctx, "tok-stale")
		assert.True(t, apperrors.IsNotFound(err))
		_, err = repo.GetByToken(ctx, "tok-used")
		assert.NoError(t, err)
		_, err = repo.GetByToken(ctx, "tok-live")
		assert.NoError(t, err)
	})
}

func TestInvitationRepo_Delete(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewInvitationRepo(db)
		commune := createTestCommune(t, db, 800)

		inv, err := repo.Create(ctx, invitationParams(commune.ID, "tok-del", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, inv.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
