package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/testutil"
)

func TestOnboardingRepo_GetNotFound(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		_, err := NewOnboardingRepo(db).GetByUserID(context.Background(), "auth0|unknown")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestOnboardingRepo_UpsertInsertsThenPatches(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewOnboardingRepo(db)
		commune := createTestCommune(t, db, 100)
		p := createTestProfile(t, db, commune.ID)

		// first save starts the flow
		created, err := repo.Upsert(ctx, &model.UpsertOnboardingRequest{
			UserID:    p.UserID,
			Step:      testutil.IntPtr(1),
			AdminData: json.RawMessage(`{"name": "Jean"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, created.Step)
		assert.False(t, created.Completed)
		assert.JSONEq(t, `{"name": "Jean"}`, string(created.AdminData))
		assert.Empty(t, created.CommuneData)

		// later saves only touch the fields they carry
		patched, err := repo.Upsert(ctx, &model.UpsertOnboardingRequest{
			UserID:      p.UserID,
			Step:        testutil.IntPtr(2),
			CommuneData: json.RawMessage(`{"population": 100}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, patched.Step)
		assert.JSONEq(t, `{"name": "Jean"}`, string(patched.AdminData), "earlier step data survives")
		assert.JSONEq(t, `{"population": 100}`, string(patched.CommuneData))

		// completion flag
		done, err := repo.Upsert(ctx, &model.UpsertOnboardingRequest{
			UserID:    p.UserID,
			Completed: testutil.BoolPtr(true),
		})
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, 2, done.Step, "omitted step keeps its value")

		got, err := repo.GetByUserID(ctx, p.UserID)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		assert.JSONEq(t, `{"population": 100}`, string(got.CommuneData))
	})
}

func TestOnboardingRepo_Delete(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewOnboardingRepo(db)
		commune := createTestCommune(t, db, 100)
		p := createTestProfile(t, db, commune.ID)

		_, err := repo.Upsert(ctx, &model.UpsertOnboardingRequest{UserID: p.UserID})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, p.UserID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, p.UserID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetByUserID(ctx, p.UserID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
