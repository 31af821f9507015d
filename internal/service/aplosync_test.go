package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/communeo/communeo-api/config"
	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/mocks"
)

func approvedEvent(id int64) *model.Event {
	return &model.Event{
		ID:             id,
		Title:          "Marché nocturne",
		Status:         model.EventStatusApproved,
		AploSyncStatus: model.AploSyncPending,
		CommuneID:      7,
	}
}

func syncConfig() config.AploSyncConfig {
	return config.AploSyncConfig{
		Interval:    time.Minute,
		BatchSize:   50,
		Concurrency: 4,
	}
}

// newAploSyncService creates mock dependencies and a service for testing.
func newAploSyncService(t *testing.T) (*mocks.MockEventRepository, *mocks.MockAploPublisher, *AploSyncService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockEventRepository(ctrl)
	publisher := mocks.NewMockAploPublisher(ctrl)

	service, err := NewAploSyncService(AploSyncServiceOptions{
		Repo:      repo,
		Publisher: publisher,
		Config:    syncConfig(),
	})
	require.NoError(t, err)

	return repo, publisher, service
}

func TestNewAploSyncService_Validation(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	_, err := NewAploSyncService(AploSyncServiceOptions{
		Publisher: mocks.NewMockAploPublisher(ctrl),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EventRepository is required")

	_, err = NewAploSyncService(AploSyncServiceOptions{
		Repo: mocks.NewMockEventRepository(ctrl),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AploPublisher is required")
}

func TestAploSyncService_SyncOnce_PublishesAndMarks(t *testing.T) {
	t.Parallel()
	repo, publisher, service := newAploSyncService(t)
	ctx := context.Background()

	events := []*model.Event{approvedEvent(1), approvedEvent(2)}
	repo.EXPECT().ListPendingSync(ctx, 50).Return(events, nil).Times(1)

	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev *model.Event) (string, error) {
			return fmt.Sprintf("aplo-%d", ev.ID), nil
		}).
		Times(2)

	var mu sync.Mutex
	var marked []int64
	repo.EXPECT().
		MarkSynced(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.MarkEventSyncedParams) error {
			mu.Lock()
			marked = append(marked, params.ID)
			mu.Unlock()
			assert.NotEmpty(t, params.AploEventID)
			assert.False(t, params.SyncedAt.IsZero())
			return nil
		}).
		Times(2)

	published, err := service.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.ElementsMatch(t, []int64{1, 2}, marked)
}

func TestAploSyncService_SyncOnce_EmptyBatch(t *testing.T) {
	t.Parallel()
	repo, _, service := newAploSyncService(t)
	ctx := context.Background()

	repo.EXPECT().ListPendingSync(ctx, 50).Return(nil, nil).Times(1)

	published, err := service.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestAploSyncService_SyncOnce_FailureRecordedPerEvent(t *testing.T) {
	t.Parallel()
	repo, publisher, service := newAploSyncService(t)
	ctx := context.Background()

	events := []*model.Event{approvedEvent(1), approvedEvent(2)}
	repo.EXPECT().ListPendingSync(ctx, 50).Return(events, nil).Times(1)

	// Event 1 fails, event 2 succeeds; the failure never blocks the batch.
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev *model.Event) (string, error) {
			if ev.ID == 1 {
				return "", errors.New("platform rejected payload")
			}
			return "aplo-2", nil
		}).
		Times(2)

	repo.EXPECT().
		MarkSyncError(gomock.Any(), int64(1), "platform rejected payload").
		Return(nil).
		Times(1)
	repo.EXPECT().
		MarkSynced(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.MarkEventSyncedParams) error {
			assert.Equal(t, int64(2), params.ID)
			assert.Equal(t, "aplo-2", params.AploEventID)
			return nil
		}).
		Times(1)

	published, err := service.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, published)
}

func TestAploSyncService_SyncOnce_ListFailure(t *testing.T) {
	t.Parallel()
	repo, _, service := newAploSyncService(t)
	ctx := context.Background()

	repo.EXPECT().ListPendingSync(ctx, 50).Return(nil, errors.New("db down")).Times(1)

	_, err := service.SyncOnce(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list pending sync")
}

func TestAploSyncService_SyncOnce_SkipsWhenLockHeld(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockEventRepository(ctrl)
	publisher := mocks.NewMockAploPublisher(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	service, err := NewAploSyncService(AploSyncServiceOptions{
		Repo:      repo,
		Publisher: publisher,
		Config:    syncConfig(),
		Cache:     cache,
	})
	require.NoError(t, err)

	ctx := context.Background()
	cache.EXPECT().
		SetIfNotExists(ctx, "aplo-sync:tick-lock", gomock.Any(), 59*time.Second).
		Return(false, nil).
		Times(1)

	published, err := service.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestAploSyncService_SyncOnce_LockErrorProceeds(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockEventRepository(ctrl)
	publisher := mocks.NewMockAploPublisher(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	service, err := NewAploSyncService(AploSyncServiceOptions{
		Repo:      repo,
		Publisher: publisher,
		Config:    syncConfig(),
		Cache:     cache,
	})
	require.NoError(t, err)

	ctx := context.Background()
	cache.EXPECT().
		SetIfNotExists(ctx, "aplo-sync:tick-lock", gomock.Any(), gomock.Any()).
		Return(false, errors.New("redis unavailable")).
		Times(1)
	repo.EXPECT().ListPendingSync(ctx, 50).Return(nil, nil).Times(1)

	published, err := service.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestAploSyncService_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()
	repo, _, service := newAploSyncService(t)

	repo.EXPECT().ListPendingSync(gomock.Any(), 50).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to stop")
	}
}
