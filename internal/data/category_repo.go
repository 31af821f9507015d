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

// CategoryRepo provides database operations for event categories.
type CategoryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCategoryRepo creates a new CategoryRepo with real time provider.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Create inserts a new category.
func (r *CategoryRepo) Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
	if req == nil {
		return nil, errors.New("create category request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Category
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO categories (name, description, created_at)
			VALUES ($1, $2, $3)
			RETURNING id, name, description, created_at`,
			strings.TrimSpace(req.Name),
			req.Description,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Category])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "categories")
	}
	return &out, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var out model.Category
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, name, description, created_at
			FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Category])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("category %d not found", id)
		}
		return nil, apperrors.MapDBError(err, "categories")
	}
	return &out, nil
}

// List retrieves all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	var rowsOut []model.Category
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, name, description, created_at
			FROM categories
			ORDER BY name ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Category])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	res := make([]*model.Category, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete deletes a category by ID. Fails with a foreign key error while
// events still reference it.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "categories")
	}
	return rows > 0, nil
}
