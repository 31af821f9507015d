package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// ProfileRepo provides database operations for user profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

const profileWithCommuneQuery = `
	SELECT p.user_id, p.email, p.role, p.commune_id, p.created_at, p.updated_at,
	       c.id, c.name, c.population, c.created_at
	FROM user_profiles p
	LEFT JOIN communes c ON p.commune_id = c.id
	WHERE p.user_id = $1`

// GetByUserID retrieves a profile by user ID with its commune joined when one
// is assigned. Returns a NotFound error when no profile row exists.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var (
			communeID   *int64
			communeName *string
			population  *int
			communeAt   *time.Time
		)
		scanErr := conn.QueryRow(ctx, profileWithCommuneQuery, userID).Scan(
			&out.UserID, &out.Email, &out.Role, &out.CommuneID, &out.CreatedAt, &out.UpdatedAt,
			&communeID, &communeName, &population, &communeAt,
		)
		if scanErr != nil {
			return scanErr
		}
		if communeID != nil {
			out.Commune = &model.Commune{
				ID:         *communeID,
				Name:       *communeName,
				Population: *population,
				CreatedAt:  *communeAt,
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("profile for user %s not found", userID)
		}
		return nil, apperrors.MapDBError(err, "user_profiles")
	}
	return &out, nil
}

// Create inserts a new profile row.
func (r *ProfileRepo) Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, errors.New("create profile request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO user_profiles (user_id, email, role, commune_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			RETURNING user_id, email, role, commune_id, created_at, updated_at`,
			req.UserID,
			strings.TrimSpace(req.Email),
			req.Role,
			req.CommuneID,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "user_profiles")
	}
	return &out, nil
}

// Update updates fields of a profile. Nil request fields leave the column unchanged.
func (r *ProfileRepo) Update(
	ctx context.Context,
	userID string,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if req.Role != nil {
		args = append(args, *req.Role)
		setParts = append(setParts, "role = $"+strconv.Itoa(len(args)))
	}
	if req.CommuneID != nil {
		args = append(args, *req.CommuneID)
		setParts = append(setParts, "commune_id = $"+strconv.Itoa(len(args)))
	}
	if len(setParts) == 0 {
		return r.GetByUserID(ctx, userID)
	}
	args = append(args, r.timeProvider.Now().UTC())
	setParts = append(setParts, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, userID)

	query := "UPDATE user_profiles SET " + strings.Join(setParts, ", ") +
		" WHERE user_id = $" + strconv.Itoa(len(args)) +
		" RETURNING user_id, email, role, commune_id, created_at, updated_at"

	var out model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("profile for user %s not found", userID)
		}
		return nil, apperrors.MapDBError(err, "user_profiles")
	}
	return &out, nil
}

// List retrieves profiles with pagination, newest first.
func (r *ProfileRepo) List(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT user_id, email, role, commune_id, created_at, updated_at
			FROM user_profiles
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	res := make([]*model.Profile, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete deletes a profile by user ID.
func (r *ProfileRepo) Delete(ctx context.Context, userID string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "user_profiles")
	}
	return rows > 0, nil
}
