package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// SubscriptionRepo provides database operations for billing subscriptions.
type SubscriptionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSubscriptionRepo creates a new SubscriptionRepo with real time provider.
func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const subscriptionSelectColumns = `id, commune_id, processor_sub_id, status, plan_id,
	amount_monthly, currency, current_period_start, current_period_end, created_at, updated_at`

// Create records a new subscription mirrored from the payment processor.
func (r *SubscriptionRepo) Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, error) {
	if req == nil {
		return nil, errors.New("create subscription request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Subscription
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO subscriptions (
				commune_id, processor_sub_id, status, plan_id, amount_monthly,
				currency, current_period_start, current_period_end, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+subscriptionSelectColumns,
			req.CommuneID,
			strings.TrimSpace(req.ProcessorSubID),
			req.Status,
			req.PlanID,
			req.AmountMonthly,
			strings.ToUpper(strings.TrimSpace(req.Currency)),
			req.CurrentPeriodStart,
			req.CurrentPeriodEnd,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Subscription])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "subscriptions")
	}
	return &out, nil
}

// GetByID retrieves a subscription by ID.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	var out model.Subscription
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			"SELECT "+subscriptionSelectColumns+" FROM subscriptions WHERE id = $1", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Subscription])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("subscription %d not found", id)
		}
		return nil, apperrors.MapDBError(err, "subscriptions")
	}
	return &out, nil
}

// GetActiveByCommune returns the commune's active subscription. When a
// commune has several rows (plan changes), the most recent active one wins.
func (r *SubscriptionRepo) GetActiveByCommune(ctx context.Context, communeID int64) (*model.Subscription, error) {
	var out model.Subscription
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+subscriptionSelectColumns+`
			FROM subscriptions
			WHERE commune_id = $1 AND status = 'active'
			ORDER BY created_at DESC
			LIMIT 1`, communeID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Subscription])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("no active subscription for commune %d", communeID)
		}
		return nil, apperrors.MapDBError(err, "subscriptions")
	}
	return &out, nil
}

// List retrieves subscriptions with pagination, newest first.
func (r *SubscriptionRepo) List(ctx context.Context, limit, offset int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []model.Subscription
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+subscriptionSelectColumns+`
			FROM subscriptions
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Subscription])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	res := make([]*model.Subscription, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateStatus moves a subscription through the processor lifecycle.
func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, id int64, status model.SubscriptionStatus) (*model.Subscription, error) {
	if !status.Valid() {
		return nil, errors.New("invalid subscription status")
	}

	var out model.Subscription
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE subscriptions
			SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+subscriptionSelectColumns,
			status, r.timeProvider.Now().UTC(), id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Subscription])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("subscription %d not found", id)
		}
		return nil, apperrors.MapDBError(err, "subscriptions")
	}
	return &out, nil
}
