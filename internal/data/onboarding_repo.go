package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// OnboardingRepo provides database operations for onboarding progress.
type OnboardingRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOnboardingRepo creates a new OnboardingRepo with real time provider.
func NewOnboardingRepo(db *sql.DB) *OnboardingRepo {
	return &OnboardingRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const onboardingSelectColumns = `id, user_id, step, completed, admin_data, commune_data,
	kyc_data, legal_data, team_data, subscription_data, created_at, updated_at`

// GetByUserID returns the user's onboarding progress.
func (r *OnboardingRepo) GetByUserID(ctx context.Context, userID string) (*model.OnboardingProgress, error) {
	var out model.OnboardingProgress
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			"SELECT "+onboardingSelectColumns+" FROM onboarding_progress WHERE user_id = $1", userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.OnboardingProgress])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("onboarding progress for user %s not found", userID)
		}
		return nil, apperrors.MapDBError(err, "onboarding_progress")
	}
	return &out, nil
}

// Upsert inserts or updates the user's onboarding progress in a single
// statement. Nil step payloads keep whatever was stored before; COALESCE on
// the conflict arm makes partial saves cheap for the step-by-step flow.
func (r *OnboardingRepo) Upsert(ctx context.Context, req *model.UpsertOnboardingRequest) (*model.OnboardingProgress, error) {
	if req == nil {
		return nil, errors.New("upsert onboarding request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	step := 0
	if req.Step != nil {
		step = *req.Step
	}
	completed := false
	if req.Completed != nil {
		completed = *req.Completed
	}

	now := r.timeProvider.Now().UTC()
	var out model.OnboardingProgress
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO onboarding_progress (
				user_id, step, completed, admin_data, commune_data, kyc_data,
				legal_data, team_data, subscription_data, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			ON CONFLICT (user_id) DO UPDATE SET
				step              = COALESCE($11, onboarding_progress.step),
				completed         = COALESCE($12, onboarding_progress.completed),
				admin_data        = COALESCE(EXCLUDED.admin_data, onboarding_progress.admin_data),
				commune_data      = COALESCE(EXCLUDED.commune_data, onboarding_progress.commune_data),
				kyc_data          = COALESCE(EXCLUDED.kyc_data, onboarding_progress.kyc_data),
				legal_data        = COALESCE(EXCLUDED.legal_data, onboarding_progress.legal_data),
				team_data         = COALESCE(EXCLUDED.team_data, onboarding_progress.team_data),
				subscription_data = COALESCE(EXCLUDED.subscription_data, onboarding_progress.subscription_data),
				updated_at        = $10
			RETURNING `+onboardingSelectColumns,
			req.UserID,
			step,
			completed,
			nilIfEmpty(req.AdminData),
			nilIfEmpty(req.CommuneData),
			nilIfEmpty(req.KYCData),
			nilIfEmpty(req.LegalData),
			nilIfEmpty(req.TeamData),
			nilIfEmpty(req.SubscriptionData),
			now,
			req.Step,
			req.Completed,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.OnboardingProgress])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "onboarding_progress")
	}
	return &out, nil
}

// nilIfEmpty converts an empty JSON blob to SQL NULL so COALESCE keeps the
// previously stored payload.
func nilIfEmpty(blob []byte) any {
	if len(blob) == 0 {
		return nil
	}
	return blob
}

// Delete removes the user's onboarding progress.
func (r *OnboardingRepo) Delete(ctx context.Context, userID string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM onboarding_progress WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "onboarding_progress")
	}
	return rows > 0, nil
}
