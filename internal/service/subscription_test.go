package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/mocks"
)

// newSubscriptionService creates a mock repository and service for testing.
func newSubscriptionService(t *testing.T) (*mocks.MockSubscriptionRepository, *SubscriptionService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockSubscriptionRepository(ctrl)
	service, err := NewSubscriptionService(SubscriptionServiceOptions{Repo: repo})
	require.NoError(t, err)

	return repo, service
}

func validSubscriptionRequest() *model.CreateSubscriptionRequest {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return &model.CreateSubscriptionRequest{
		CommuneID:          7,
		ProcessorSubID:     "sub_1abc",
		Status:             model.SubscriptionActive,
		PlanID:             model.PlanSmallCommune,
		AmountMonthly:      99,
		Currency:           "eur",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
	}
}

func TestSubscriptionService_Plans_TieredByPopulation(t *testing.T) {
	t.Parallel()
	_, service := newSubscriptionService(t)

	plans := service.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, model.PlanSmallCommune, plans[0].ID)
	assert.Equal(t, 99, plans[0].MonthlyPriceEUR)
	assert.Equal(t, 199, plans[1].MonthlyPriceEUR)
	assert.Equal(t, 299, plans[2].MonthlyPriceEUR)

	assert.Equal(t, model.PlanSmallCommune, service.PlanForPopulation(3000).ID)
	assert.Equal(t, model.PlanMediumCommune, service.PlanForPopulation(10000).ID)
	assert.Equal(t, model.PlanLargeCommune, service.PlanForPopulation(250000).ID)
	// Populations above every ceiling land in the last tier.
	assert.Equal(t, model.PlanLargeCommune, service.PlanForPopulation(2500000).ID)
}

func TestSubscriptionService_Record_Success(t *testing.T) {
	t.Parallel()
	repo, service := newSubscriptionService(t)
	ctx := context.Background()

	req := validSubscriptionRequest()
	repo.EXPECT().
		Create(ctx, req).
		Return(&model.Subscription{ID: 1, CommuneID: 7, PlanID: req.PlanID, Status: req.Status}, nil).
		Times(1)

	sub, err := service.Record(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.ID)
}

func TestSubscriptionService_Record_UnknownPlan(t *testing.T) {
	t.Parallel()
	_, service := newSubscriptionService(t)

	req := validSubscriptionRequest()
	req.PlanID = "mega_commune"

	_, err := service.Record(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSubscriptionService_ActiveForCommune_NoneIsNil(t *testing.T) {
	t.Parallel()
	repo, service := newSubscriptionService(t)
	ctx := context.Background()

	repo.EXPECT().
		GetActiveByCommune(ctx, int64(7)).
		Return(nil, apperrors.NotFound("no active subscription")).
		Times(1)

	sub, err := service.ActiveForCommune(ctx, 7)

	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestSubscriptionService_ActiveForCommune_Found(t *testing.T) {
	t.Parallel()
	repo, service := newSubscriptionService(t)
	ctx := context.Background()

	repo.EXPECT().
		GetActiveByCommune(ctx, int64(7)).
		Return(&model.Subscription{ID: 3, CommuneID: 7, Status: model.SubscriptionActive}, nil).
		Times(1)

	sub, err := service.ActiveForCommune(ctx, 7)

	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, model.SubscriptionActive, sub.Status)
}

func TestSubscriptionService_UpdateStatus_InvalidStatus(t *testing.T) {
	t.Parallel()
	_, service := newSubscriptionService(t)

	_, err := service.UpdateStatus(context.Background(), 3, "paused")

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSubscriptionService_UpdateStatus_Success(t *testing.T) {
	t.Parallel()
	repo, service := newSubscriptionService(t)
	ctx := context.Background()

	repo.EXPECT().
		UpdateStatus(ctx, int64(3), model.SubscriptionCanceled).
		Return(&model.Subscription{ID: 3, Status: model.SubscriptionCanceled}, nil).
		Times(1)

	sub, err := service.UpdateStatus(ctx, 3, model.SubscriptionCanceled)

	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCanceled, sub.Status)
}
