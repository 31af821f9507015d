package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/data/pgxutil"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// InvitationRepo provides database operations for team invitations.
type InvitationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewInvitationRepo creates a new InvitationRepo with real time provider.
func NewInvitationRepo(db *sql.DB) *InvitationRepo {
	return &InvitationRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const invitationSelectColumns = "id, email, commune_id, role, token, expires_at, accepted, created_at"

// Create inserts a new team invitation.
func (r *InvitationRepo) Create(ctx context.Context, params core.CreateInvitationParams) (*model.TeamInvitation, error) {
	if params.Req == nil {
		return nil, errors.New("create invitation request is required")
	}
	if err := params.Req.Validate(); err != nil {
		return nil, err
	}
	if params.Token == "" {
		return nil, errors.New("invitation token is required")
	}
	if params.ExpiresAt.IsZero() {
		return nil, errors.New("invitation expiry is required")
	}

	var out model.TeamInvitation
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO team_invitations (email, commune_id, role, token, expires_at, accepted, created_at)
			VALUES ($1, $2, $3, $4, $5, false, $6)
			RETURNING `+invitationSelectColumns,
			strings.ToLower(strings.TrimSpace(params.Req.Email)),
			params.Req.CommuneID,
			params.Req.Role,
			params.Token,
			params.ExpiresAt.UTC(),
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TeamInvitation])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err, "team_invitations")
	}
	return &out, nil
}

// GetByToken retrieves an invitation by its token.
func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*model.TeamInvitation, error) {
	var out model.TeamInvitation
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			"SELECT "+invitationSelectColumns+" FROM team_invitations WHERE token = $1", token)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.TeamInvitation])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("invitation not found")
		}
		return nil, apperrors.MapDBError(err, "team_invitations")
	}
	return &out, nil
}

// ListByCommune retrieves a commune's invitations, newest first.
func (r *InvitationRepo) ListByCommune(ctx context.Context, communeID int64) ([]*model.TeamInvitation, error) {
	var rowsOut []model.TeamInvitation
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+invitationSelectColumns+`
			FROM team_invitations
			WHERE commune_id = $1
			ORDER BY created_at DESC`, communeID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.TeamInvitation])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	res := make([]*model.TeamInvitation, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// MarkAccepted flags an invitation as used. Returns false when the token is
// unknown or the invitation was already accepted.
func (r *InvitationRepo) MarkAccepted(ctx context.Context, token string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			UPDATE team_invitations
			SET accepted = true
			WHERE token = $1 AND accepted = false`, token)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "team_invitations")
	}
	return rows > 0, nil
}

// Delete deletes an invitation by ID.
func (r *InvitationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM team_invitations WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err, "team_invitations")
	}
	return rows > 0, nil
}

// DeleteExpired removes unaccepted invitations past their expiry.
// Processes up to batchSize rows per call to prevent long locks.
// Returns the number of rows deleted.
func (r *InvitationRepo) DeleteExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	var deleted int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `
			DELETE FROM team_invitations
			WHERE id IN (
				SELECT id FROM team_invitations
				WHERE accepted = false AND expires_at < $1
				LIMIT $2
			)`, r.timeProvider.Now().UTC(), batchSize)
		if err != nil {
			return err
		}
		deleted = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, apperrors.MapDBError(err, "team_invitations")
	}
	return deleted, nil
}
