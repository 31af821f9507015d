package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/communeo/communeo-api/internal/data"
	"github.com/communeo/communeo-api/internal/domain/model"
)

// syncLockKey matches the cross-replica tick lock the sync runner claims.
const syncLockKey = "aplo-sync:tick-lock"

// sessionKeyPattern matches the session store prefix used by the auth stack.
const sessionKeyPattern = "session:*"

type pruneInvitationsOptions struct {
	BatchSize int
	DryRun    bool
	Yes       bool
}

func (p pruneInvitationsOptions) IsDryRun() bool { return p.DryRun }
func (p pruneInvitationsOptions) IsYes() bool    { return p.Yes }
func (p pruneInvitationsOptions) GetWarning() string {
	return "WARNING: this will permanently delete expired unaccepted invitations."
}
func (p pruneInvitationsOptions) GetTarget() string { return "" }

func parsePruneInvitationsFlags(args []string) (pruneInvitationsOptions, error) {
	fs := flag.NewFlagSet("prune-invitations", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := pruneInvitationsOptions{BatchSize: 500}

	fs.IntVar(&opts.BatchSize, "batch-size", 500, "Maximum rows to delete per pass")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Report what would be deleted without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return pruneInvitationsOptions{}, err
	}

	if opts.BatchSize <= 0 {
		return pruneInvitationsOptions{}, errors.New("--batch-size must be greater than zero")
	}

	return opts, nil
}

func runPruneInvitations(cmdCtx *commandContext, args []string) error {
	opts, err := parsePruneInvitationsFlags(args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(opts, "prune expired invitations"); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, 2*time.Minute, func(ctx context.Context, db *sql.DB) error {
		expired, countErr := countExpiredInvitations(ctx, db)
		if countErr != nil {
			return countErr
		}

		if opts.DryRun {
			cmdCtx.Logger.Info("dry run: expired invitations eligible for deletion", "count", expired)
			return nil
		}

		repo := data.NewInvitationRepo(db)
		var total int64
		for {
			deleted, delErr := repo.DeleteExpired(ctx, opts.BatchSize)
			if delErr != nil {
				return fmt.Errorf("delete expired invitations: %w", delErr)
			}
			total += deleted
			if deleted < int64(opts.BatchSize) {
				break
			}
		}

		cmdCtx.Logger.Info("prune invitations complete", "rows_deleted", total, "eligible_before", expired)
		return nil
	})
}

func countExpiredInvitations(ctx context.Context, db *sql.DB) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM team_invitations
		WHERE accepted = false AND expires_at < NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expired invitations: %w", err)
	}
	return count, nil
}

// syncQueueCounts breaks approved events down by their platform sync state.
type syncQueueCounts struct {
	Pending int64
	Synced  int64
	Errored int64
}

func runSyncStatus(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer closeInfra(cmdCtx.Logger, db, redisClient)

	counts, err := data.NewEventRepo(db).StatusCounts(ctx, nil)
	if err != nil {
		return fmt.Errorf("event status counts: %w", err)
	}

	queue, err := fetchSyncQueueCounts(ctx, db)
	if err != nil {
		return err
	}

	lastError, err := fetchLastSyncError(ctx, db)
	if err != nil {
		return err
	}

	var lockTTL *time.Duration
	if redisClient != nil {
		ttl, ttlErr := redisClient.TTL(ctx, syncLockKey).Result()
		if ttlErr != nil {
			cmdCtx.Logger.Warn("failed to read tick lock TTL", "key", syncLockKey, "error", ttlErr)
		} else {
			lockTTL = &ttl
		}
	}

	return printSyncStatus(os.Stdout, &syncStatusReport{
		Counts:    counts,
		Queue:     queue,
		LastError: lastError,
		LockTTL:   lockTTL,
	})
}

func fetchSyncQueueCounts(ctx context.Context, db *sql.DB) (syncQueueCounts, error) {
	var queue syncQueueCounts
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN aplo_sync_status = 'pending' THEN 1 END),
			COUNT(CASE WHEN aplo_sync_status = 'synced' THEN 1 END),
			COUNT(CASE WHEN aplo_sync_status = 'error' THEN 1 END)
		FROM events
		WHERE status IN ('approved', 'pushed')`).
		Scan(&queue.Pending, &queue.Synced, &queue.Errored)
	if err != nil {
		return syncQueueCounts{}, fmt.Errorf("sync queue counts: %w", err)
	}
	return queue, nil
}

func fetchLastSyncError(ctx context.Context, db *sql.DB) (string, error) {
	var lastError sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT aplo_sync_error FROM events
		WHERE aplo_sync_status = 'error' AND aplo_sync_error IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT 1`).Scan(&lastError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("last sync error: %w", err)
	}
	return lastError.String, nil
}

type syncStatusReport struct {
	Counts    *model.EventStatusCounts
	Queue     syncQueueCounts
	LastError string
	LockTTL   *time.Duration
}

func printSyncStatus(w io.Writer, report *syncStatusReport) error {
	if err := writef(w, "\nEvent Moderation\n"); err != nil {
		return fmt.Errorf("print moderation header: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  pending\t%d\n", report.Counts.Pending)
	fmt.Fprintf(tw, "  approved\t%d\n", report.Counts.Approved)
	fmt.Fprintf(tw, "  rejected\t%d\n", report.Counts.Rejected)
	fmt.Fprintf(tw, "  pushed\t%d\n", report.Counts.Pushed)
	fmt.Fprintf(tw, "  total\t%d\n", report.Counts.Total())
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush moderation table: %w", err)
	}

	if err := writef(w, "\nAPLO Push Queue (approved events)\n"); err != nil {
		return fmt.Errorf("print queue header: %w", err)
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  awaiting push\t%d\n", report.Queue.Pending)
	fmt.Fprintf(tw, "  synced\t%d\n", report.Queue.Synced)
	fmt.Fprintf(tw, "  errored\t%d\n", report.Queue.Errored)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush queue table: %w", err)
	}

	if report.LastError != "" {
		if err := writef(w, "\nMost recent push error: %s\n", report.LastError); err != nil {
			return fmt.Errorf("print last error: %w", err)
		}
	}

	switch {
	case report.LockTTL == nil:
		if err := writef(w, "\nTick lock: redis unavailable\n"); err != nil {
			return fmt.Errorf("print tick lock: %w", err)
		}
	default:
		if err := writef(w, "\nTick lock %q: %s\n", syncLockKey, renderTTL(*report.LockTTL)); err != nil {
			return fmt.Errorf("print tick lock: %w", err)
		}
	}

	return nil
}

func runListSessions(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	_, redisClient, err := connectInfra(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	if redisClient == nil {
		if writeErr := writeln(os.Stderr, "Redis client is not available"); writeErr != nil {
			return fmt.Errorf("print redis availability: %w", writeErr)
		}
		return nil
	}
	defer closeInfra(cmdCtx.Logger, nil, redisClient)

	cmdCtx.Logger.Info("scanning redis", "pattern", sessionKeyPattern)

	if headerErr := writef(os.Stdout, "\nActive Sessions in Redis\n"); headerErr != nil {
		return fmt.Errorf("print session header: %w", headerErr)
	}

	total := 0
	iter := redisClient.Scan(ctx, 0, sessionKeyPattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		total++

		ttl, ttlErr := redisClient.TTL(ctx, key).Result()
		if ttlErr != nil {
			cmdCtx.Logger.ErrorContext(ctx, "failed to fetch TTL", "key", key, "error", ttlErr)
			if printErr := writef(os.Stdout, "  %s (TTL: error: %v)\n", key, ttlErr); printErr != nil {
				return fmt.Errorf("print session key ttl error: %w", printErr)
			}
			continue
		}
		if printErr := writef(os.Stdout, "  %s (TTL: %s)\n", key, renderTTL(ttl)); printErr != nil {
			return fmt.Errorf("print session key: %w", printErr)
		}
	}
	if iterErr := iter.Err(); iterErr != nil {
		return fmt.Errorf("redis scan: %w", iterErr)
	}

	if total == 0 {
		if nonePrintErr := writeln(os.Stdout, "(no sessions found)"); nonePrintErr != nil {
			return fmt.Errorf("print sessions none: %w", nonePrintErr)
		}
		return nil
	}

	if totalPrintErr := writef(os.Stdout, "\nTotal sessions: %d\n", total); totalPrintErr != nil {
		return fmt.Errorf("print sessions total: %w", totalPrintErr)
	}
	return nil
}

func renderTTL(d time.Duration) string {
	switch {
	case d == -1*time.Second:
		return "no expiry"
	case d == -2*time.Second:
		return "key missing"
	default:
		return d.String()
	}
}
