package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/data/database"
	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// NotificationRepo provides database operations for admin notifications.
type NotificationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewNotificationRepo creates a new NotificationRepo with real time provider.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const notificationSelectColumns = `id, type, title, message, data, read, created_at`

// Create inserts a new admin notification.
func (r *NotificationRepo) Create(ctx context.Context, req *model.CreateNotificationRequest) (*model.AdminNotification, error) {
	if req == nil {
		return nil, errors.New("create notification request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.AdminNotification
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO admin_notifications (type, title, message, data, read, created_at)
			VALUES ($1, $2, $3, $4, false, $5)
			RETURNING `+notificationSelectColumns,
			req.Type,
			strings.TrimSpace(req.Title),
			req.Message,
			nilIfEmpty(req.Data),
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AdminNotification])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "admin_notifications")
	}
	return &out, nil
}

// List retrieves notifications with optional filters, newest first.
func (r *NotificationRepo) List(ctx context.Context, opts model.NotificationListOptions) ([]*model.AdminNotification, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := database.NewListQueryOptions("admin_notifications",
		database.WithColumns("id", "type", "title", "message", "data", "read", "created_at"),
		func(o *database.ListQueryOptions) {
			if opts.UnreadOnly {
				o.Conditions = append(o.Conditions,
					database.WhereCond("read", database.Equal, false))
			}
			if opts.Type != nil {
				o.Conditions = append(o.Conditions,
					database.WhereCond("type", database.Equal, *opts.Type))
			}
		},
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	)
	query, args := database.BuildListQuery(queryOpts)

	var rowsOut []model.AdminNotification
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AdminNotification])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	res := make([]*model.AdminNotification, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// MarkRead flags a notification as read. Returns false when the id is unknown.
func (r *NotificationRepo) MarkRead(ctx context.Context, id int64) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx,
			`UPDATE admin_notifications SET read = true WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "admin_notifications")
	}
	return rows > 0, nil
}

// UnreadCount returns the number of unread notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context) (int, error) {
	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM admin_notifications WHERE read = false`).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Delete deletes a notification by ID.
func (r *NotificationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM admin_notifications WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "admin_notifications")
	}
	return rows > 0, nil
}
