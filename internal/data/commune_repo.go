package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// CommuneRepo provides database operations for communes.
type CommuneRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCommuneRepo creates a new CommuneRepo with real time provider.
func NewCommuneRepo(db *sql.DB) *CommuneRepo {
	return &CommuneRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const communeSelectColumns = "id, name, population, created_at"

// Create inserts a new commune.
func (r *CommuneRepo) Create(ctx context.Context, req *model.CreateCommuneRequest) (*model.Commune, error) {
	if req == nil {
		return nil, errors.New("create commune request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Commune
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO communes (name, population, created_at)
			VALUES ($1, $2, $3)
			RETURNING `+communeSelectColumns,
			strings.TrimSpace(req.Name),
			req.Population,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Commune])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "communes")
	}
	return &out, nil
}

// GetByID retrieves a commune by ID.
func (r *CommuneRepo) GetByID(ctx context.Context, id int64) (*model.Commune, error) {
	return r.getByQuery(ctx,
		"SELECT "+communeSelectColumns+" FROM communes WHERE id = $1",
		fmt.Sprintf("commune %d not found", id), id)
}

// GetByName retrieves a commune by name.
func (r *CommuneRepo) GetByName(ctx context.Context, name string) (*model.Commune, error) {
	return r.getByQuery(ctx,
		"SELECT "+communeSelectColumns+" FROM communes WHERE name = $1",
		fmt.Sprintf("commune %q not found", name), name)
}

func (r *CommuneRepo) getByQuery(ctx context.Context, query, notFoundMsg string, arg any) (*model.Commune, error) {
	var out model.Commune
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Commune])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(notFoundMsg)
		}
		return nil, apperrors.MapDBError(err, "communes")
	}
	return &out, nil
}

// List retrieves communes with pagination, ordered by name.
func (r *CommuneRepo) List(ctx context.Context, limit, offset int) ([]*model.Commune, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var rowsOut []model.Commune
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+communeSelectColumns+`
			FROM communes
			ORDER BY name ASC
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Commune])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list communes: %w", err)
	}

	res := make([]*model.Commune, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a commune.
func (r *CommuneRepo) Update(ctx context.Context, id int64, req model.UpdateCommuneRequest) (*model.Commune, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if req.Name != nil {
		args = append(args, strings.TrimSpace(*req.Name))
		setParts = append(setParts, "name = $"+strconv.Itoa(len(args)))
	}
	if req.Population != nil {
		args = append(args, *req.Population)
		setParts = append(setParts, "population = $"+strconv.Itoa(len(args)))
	}
	args = append(args, id)

	query := "UPDATE communes SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + communeSelectColumns

	var out model.Commune
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Commune])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("commune %d not found", id)
		}
		return nil, apperrors.MapDBError(err, "communes")
	}
	return &out, nil
}

// Delete deletes a commune by ID. Events, invitations, and subscriptions
// cascade; profiles keep their row with commune_id cleared.
func (r *CommuneRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM communes WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "communes")
	}
	return rows > 0, nil
}
