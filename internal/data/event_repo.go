package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/data/database"
	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// EventRepo provides database operations for events.
type EventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewEventRepo creates a new EventRepo with real time provider.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewEventRepoWithTimeProvider creates a new EventRepo with a custom time provider (useful for tests).
func NewEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *EventRepo {
	return &EventRepo{DB: db, timeProvider: tp}
}

// eventColumns returns the standard column list for event queries.
func eventColumns() []string {
	return []string{
		"id",
		"title",
		"description",
		"date_start",
		"date_end",
		"location",
		"address",
		"category_id",
		"is_free",
		"price",
		"image_url",
		"gps_lat",
		"gps_lng",
		"contact_name",
		"contact_email",
		"contact_phone",
		"creator_id",
		"status",
		"reviewed_by",
		"reviewed_at",
		"aplo_sync_status",
		"aplo_event_id",
		"aplo_sync_error",
		"commune_id",
		"created_at",
		"updated_at",
	}
}

var eventColumnList = strings.Join(eventColumns(), ", ")

// Create inserts a new event. New events always start pending with APLO sync pending.
func (r *EventRepo) Create(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	if req == nil {
		return nil, errors.New("create event request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO events (
				title, description, date_start, date_end, location, address,
				category_id, is_free, price, image_url, gps_lat, gps_lng,
				contact_name, contact_email, contact_phone, creator_id,
				commune_id, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $18
			) RETURNING `+eventColumnList,
			strings.TrimSpace(req.Title),
			req.Description,
			req.DateStart,
			req.DateEnd,
			req.Location,
			req.Address,
			req.CategoryID,
			req.IsFree,
			req.Price,
			req.ImageURL,
			req.GPSLat,
			req.GPSLng,
			req.ContactName,
			req.ContactEmail,
			req.ContactPhone,
			req.CreatorID,
			req.CommuneID,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "events")
	}
	return &out, nil
}

// GetByID retrieves an event by ID.
func (r *EventRepo) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			"SELECT "+eventColumnList+" FROM events WHERE id = $1", id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("event %d not found", id)
		}
		return nil, apperrors.MapDBError(err, "events")
	}
	return &out, nil
}

// List retrieves events with optional commune and status filters, newest first.
func (r *EventRepo) List(ctx context.Context, opts model.EventsListOptions) ([]*model.Event, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query, args := database.BuildListQuery(r.buildListOptions(opts, limit, offset))

	var rowsOut []model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	res := make([]*model.Event, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count returns the number of events matching the filters in opts.
func (r *EventRepo) Count(ctx context.Context, opts model.EventsListOptions) (int, error) {
	queryOpts := database.NewListQueryOptions("events",
		database.WithCountOnly(),
		r.filterConditions(opts),
	)
	query, args := database.BuildListQuery(queryOpts)

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// buildListOptions builds query options for event listing with filters.
func (r *EventRepo) buildListOptions(
	opts model.EventsListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	return database.NewListQueryOptions("events",
		database.WithColumns(eventColumns()...),
		r.filterConditions(opts),
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(limit),
		database.WithOffset(offset),
	)
}

// filterConditions translates list filters into query conditions.
func (r *EventRepo) filterConditions(opts model.EventsListOptions) database.ListQueryOption {
	return func(o *database.ListQueryOptions) {
		if opts.CommuneID != nil {
			o.Conditions = append(o.Conditions,
				database.WhereCond("commune_id", database.Equal, *opts.CommuneID))
		}
		if opts.Status != nil {
			o.Conditions = append(o.Conditions,
				database.WhereCond("status", database.Equal, *opts.Status))
		}
	}
}

// Update updates fields of an event. Editing an approved or pushed event does
// not reset its moderation status; that decision belongs to the service layer.
func (r *EventRepo) Update(ctx context.Context, id int64, req model.UpdateEventRequest) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setClause, args := r.buildUpdateClause(req)
	args = append(args, id)
	query := "UPDATE events SET " + setClause +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + eventColumnList

	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("event %d not found", id)
		}
		return nil, apperrors.MapDBError(err, "events")
	}
	return &out, nil
}

// buildUpdateClause builds the SQL SET clause and args for updating an event.
func (r *EventRepo) buildUpdateClause(req model.UpdateEventRequest) (string, []any) {
	setParts := make([]string, 0, 16)
	args := make([]any, 0, 16)
	add := func(col string, val any) {
		args = append(args, val)
		setParts = append(setParts, col+" = $"+strconv.Itoa(len(args)))
	}

	if req.Title != nil {
		add("title", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.DateStart != nil {
		add("date_start", *req.DateStart)
	}
	if req.DateEnd != nil {
		add("date_end", *req.DateEnd)
	}
	if req.Location != nil {
		add("location", *req.Location)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.CategoryID != nil {
		add("category_id", *req.CategoryID)
	}
	if req.IsFree != nil {
		add("is_free", *req.IsFree)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}
	if req.GPSLat != nil {
		add("gps_lat", *req.GPSLat)
	}
	if req.GPSLng != nil {
		add("gps_lng", *req.GPSLng)
	}
	if req.ContactName != nil {
		add("contact_name", *req.ContactName)
	}
	if req.ContactEmail != nil {
		add("contact_email", *req.ContactEmail)
	}
	if req.ContactPhone != nil {
		add("contact_phone", *req.ContactPhone)
	}

	add("updated_at", r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args
}

// Delete deletes an event by ID.
func (r *EventRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "events")
	}
	return rows > 0, nil
}

// SetStatus transitions an event's moderation status and records the reviewer.
func (r *EventRepo) SetStatus(ctx context.Context, params core.SetEventStatusParams) (*model.Event, error) {
	if !params.Status.Valid() {
		return nil, errors.New("invalid event status")
	}

	now := r.timeProvider.Now().UTC()
	var out model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE events
			SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
			WHERE id = $4
			RETURNING `+eventColumnList,
			params.Status, params.ReviewedBy, now, params.ID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("event %d not found", params.ID)
		}
		return nil, apperrors.MapDBError(err, "events")
	}
	return &out, nil
}

// StatusCounts aggregates events by moderation status, optionally scoped to a commune.
func (r *EventRepo) StatusCounts(ctx context.Context, communeID *int64) (*model.EventStatusCounts, error) {
	whereClause := ""
	var args []any
	if communeID != nil {
		whereClause = "WHERE commune_id = $1"
		args = append(args, *communeID)
	}

	query := `SELECT
		COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending,
		COUNT(CASE WHEN status = 'approved' THEN 1 END) AS approved,
		COUNT(CASE WHEN status = 'rejected' THEN 1 END) AS rejected,
		COUNT(CASE WHEN status = 'pushed' THEN 1 END) AS pushed
	FROM events ` + whereClause

	var out model.EventStatusCounts
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(
			&out.Pending, &out.Approved, &out.Rejected, &out.Pushed)
	}); err != nil {
		return nil, fmt.Errorf("failed to count event statuses: %w", err)
	}
	return &out, nil
}

// ListPendingSync returns approved events whose platform sync is still pending
// or errored, oldest first so retries do not starve new events.
func (r *EventRepo) ListPendingSync(ctx context.Context, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = 25
	}

	var rowsOut []model.Event
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+eventColumnList+`
			FROM events
			WHERE status = 'approved' AND aplo_sync_status IN ('pending', 'error')
			ORDER BY updated_at ASC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Event])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list events pending sync: %w", err)
	}

	res := make([]*model.Event, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// MarkSynced records a successful platform push. The event moves to the
// pushed moderation status so communes can see it went live.
func (r *EventRepo) MarkSynced(ctx context.Context, params core.MarkEventSyncedParams) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE events
			SET aplo_sync_status = 'synced', aplo_event_id = $1, aplo_sync_error = NULL,
			    status = 'pushed', updated_at = $2
			WHERE id = $3`,
			params.AploEventID, params.SyncedAt.UTC(), params.ID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFoundf("event %d not found", params.ID)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.MapDBError(err, "events")
	}
	return nil
}

// MarkSyncError records a failed platform push with the error message for
// operator review.
func (r *EventRepo) MarkSyncError(ctx context.Context, id int64, errMsg string) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE events
			SET aplo_sync_status = 'error', aplo_sync_error = $1, updated_at = $2
			WHERE id = $3`,
			errMsg, r.timeProvider.Now().UTC(), id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFoundf("event %d not found", id)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.MapDBError(err, "events")
	}
	return nil
}
