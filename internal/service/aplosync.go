package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/communeo/communeo-api/config"
	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/data"
	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/observability/metrics"
	"github.com/communeo/communeo-api/internal/observability/statsd"
)

// syncLockKey guards a sync tick across replicas; only one process pushes a
// given batch window.
const syncLockKey = "aplo-sync:tick-lock"

// AploSyncServiceOptions groups dependencies for AploSyncService.
type AploSyncServiceOptions struct {
	Repo      core.EventRepository // Required: pending-sync listings
	Publisher core.AploPublisher   // Required: platform client
	Config    config.AploSyncConfig
	Cache     core.CacheRepository // Optional: distributed tick lock
	Time      data.TimeProvider    // Optional: defaults to real time
	Logger    *slog.Logger         // Optional: structured logger
	Metrics   statsd.Sink          // Optional: metrics sink (StatsD-compatible)
}

// AploSyncService publishes approved events to the APLO platform on an
// interval. Each tick takes a bounded batch of events whose sync is pending
// or previously errored and pushes them with bounded concurrency; outcomes
// are recorded per event so a failing listing never blocks the rest.
type AploSyncService struct {
	repo      core.EventRepository
	publisher core.AploPublisher
	config    config.AploSyncConfig
	cache     core.CacheRepository
	time      data.TimeProvider
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewAploSyncService constructs a new AploSyncService with validation.
func NewAploSyncService(opts AploSyncServiceOptions) (*AploSyncService, error) {
	if opts.Repo == nil {
		return nil, errors.New("EventRepository is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("AploPublisher is required")
	}

	timeProvider := opts.Time
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "aplo_sync_service")
		logger.Debug("AploSyncService initialized",
			"interval", opts.Config.Interval,
			"batch_size", opts.Config.BatchSize,
			"concurrency", opts.Config.Concurrency,
		)
	}

	return &AploSyncService{
		repo:      opts.Repo,
		publisher: opts.Publisher,
		config:    opts.Config,
		cache:     opts.Cache,
		time:      timeProvider,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// Run starts the sync loop and runs until the context is cancelled.
// Returns nil on graceful shutdown.
func (s *AploSyncService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting aplo sync service", "interval", s.config.Interval)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// First pass immediately so approved events don't wait a full interval
	// after startup.
	if _, err := s.SyncOnce(ctx); err != nil && !isContextCancellation(err) {
		s.logSyncError(err)
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "aplo sync service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				if isContextCancellation(err) {
					continue
				}
				s.logSyncError(err)
				// Keep running despite errors; the next tick retries.
			}
		}
	}
}

// SyncOnce pushes one batch of pending events and returns how many were
// successfully published. When another replica holds the tick lock it
// returns (0, nil).
func (s *AploSyncService) SyncOnce(ctx context.Context) (int, error) {
	if !s.acquireTickLock(ctx) {
		return 0, nil
	}

	start := s.time.Now()

	events, err := s.repo.ListPendingSync(ctx, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending sync: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "syncing events to aplo", "count", len(events))
	}

	var published int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	results := make(chan bool, len(events))
	for _, ev := range events {
		g.Go(func() error {
			ok := s.publishOne(gctx, ev)
			results <- ok
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	for ok := range results {
		if ok {
			published++
		}
	}

	metrics.EmitSyncCycle(s.metrics, len(events), time.Since(start))

	if ctx.Err() != nil {
		return int(published), ctx.Err()
	}
	return int(published), nil
}

// publishOne pushes a single event and records the outcome. Returns true on
// success. Failures are recorded on the event row, never propagated.
func (s *AploSyncService) publishOne(ctx context.Context, ev *model.Event) bool {
	start := s.time.Now()

	remoteID, err := s.publisher.Publish(ctx, ev)
	elapsed := time.Since(start)

	if err != nil {
		metrics.EmitEventSync(s.metrics, metrics.SyncMetric{
			Result:   metrics.ResultError,
			Duration: elapsed,
			Err:      err,
		})
		if s.logger != nil {
			s.logger.WarnContext(ctx, "aplo publish failed", "event_id", ev.ID, "error", err)
		}
		if markErr := s.repo.MarkSyncError(ctx, ev.ID, err.Error()); markErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "record sync error failed", "event_id", ev.ID, "error", markErr)
		}
		return false
	}

	if markErr := s.repo.MarkSynced(ctx, core.MarkEventSyncedParams{
		ID:          ev.ID,
		AploEventID: remoteID,
		SyncedAt:    s.time.Now(),
	}); markErr != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "record sync success failed", "event_id", ev.ID, "error", markErr)
		}
		return false
	}

	metrics.EmitEventSync(s.metrics, metrics.SyncMetric{
		Result:   metrics.ResultSuccess,
		Duration: elapsed,
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "event published to aplo",
			"event_id", ev.ID, "aplo_event_id", remoteID)
	}
	return true
}

// acquireTickLock claims the cross-replica tick lock. Without a cache the
// service assumes it is the only runner.
func (s *AploSyncService) acquireTickLock(ctx context.Context) bool {
	if s.cache == nil {
		return true
	}

	// Lock expires before the next tick so a crashed holder never wedges
	// the sync permanently.
	ttl := s.config.Interval - time.Second
	if ttl <= 0 {
		ttl = s.config.Interval
	}

	acquired, err := s.cache.SetIfNotExists(ctx, syncLockKey, []byte("1"), ttl)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "tick lock unavailable, proceeding without it", "error", err)
		}
		return true
	}
	if !acquired && s.logger != nil {
		s.logger.DebugContext(ctx, "tick lock held by another replica, skipping")
	}
	return acquired
}

func (s *AploSyncService) logSyncError(err error) {
	if s.logger != nil {
		s.logger.Error("aplo sync cycle failed", "error", err)
	}
}
