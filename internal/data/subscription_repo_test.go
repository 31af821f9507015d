package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/testutil"
)

func subscriptionRequest(communeID int64) *model.CreateSubscriptionRequest {
	start := testutil.TestTime()
	return &model.CreateSubscriptionRequest{
		CommuneID:          communeID,
		ProcessorSubID:     uniqueName("sub"),
		Status:             model.SubscriptionActive,
		PlanID:             model.PlanSmallCommune,
		AmountMonthly:      2900,
		Currency:           "eur",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
	}
}

func TestSubscriptionRepo_CreateAndGet(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSubscriptionRepo(db)
		commune := createTestCommune(t, db, 1200)

		req := subscriptionRequest(commune.ID)
		sub, err := repo.Create(ctx, req)
		require.NoError(t, err)
		require.NotZero(t, sub.ID)
		assert.Equal(t, model.SubscriptionActive, sub.Status)
		assert.Equal(t, model.PlanSmallCommune, sub.PlanID)
		assert.Equal(t, "EUR", sub.Currency, "currency normalizes to uppercase")
		assert.Equal(t, 2900, sub.AmountMonthly)

		got, err := repo.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, req.ProcessorSubID, got.ProcessorSubID)

		_, err = repo.GetByID(ctx, 424242)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSubscriptionRepo_GetActiveByCommune(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSubscriptionRepo(db)
		commune := createTestCommune(t, db, 1200)

		// no subscription yet
		_, err := repo.GetActiveByCommune(ctx, commune.ID)
		assert.True(t, apperrors.IsNotFound(err))

		first, err := repo.Create(ctx, subscriptionRequest(commune.ID))
		require.NoError(t, err)

		active, err := repo.GetActiveByCommune(ctx, commune.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, active.ID)

		// canceled subscriptions are not considered active
		_, err = repo.UpdateStatus(ctx, first.ID, model.SubscriptionCanceled)
		require.NoError(t, err)

		_, err = repo.GetActiveByCommune(ctx, commune.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSubscriptionRepo_UpdateStatus(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSubscriptionRepo(db)
		commune := createTestCommune(t, db, 1200)

		sub, err := repo.Create(ctx, subscriptionRequest(commune.ID))
		require.NoError(t, err)

		updated, err := repo.UpdateStatus(ctx, sub.ID, model.SubscriptionPastDue)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionPastDue, updated.Status)
		assert.True(t, updated.UpdatedAt.After(sub.UpdatedAt) || updated.UpdatedAt.Equal(sub.UpdatedAt))

		_, err = repo.UpdateStatus(ctx, 424242, model.SubscriptionCanceled)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSubscriptionRepo_ListNewestFirst(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewSubscriptionRepo(db)
		commune := createTestCommune(t, db, 1200)

		_, err := repo.Create(ctx, subscriptionRequest(commune.ID))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
		second, err := repo.Create(ctx, subscriptionRequest(commune.ID))
		require.NoError(t, err)

		list, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
	})
}
