package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/communeo/communeo-api/config"
	"github.com/communeo/communeo-api/internal/adapters/aplo"
	"github.com/communeo/communeo-api/internal/adapters/reaper"
	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/data"
	"github.com/communeo/communeo-api/internal/observability/statsd"
	"github.com/communeo/communeo-api/internal/service"
)

// BuildMetricsSink creates the StatsD sink from observability configuration.
// A disabled configuration yields a sink that drops everything, so callers
// never need to nil-check.
func BuildMetricsSink(cfg config.ObservabilityConfig, logger *slog.Logger) (statsd.Sink, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  "communeo",
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}
	return client, nil
}

// BuildAploPublisher creates the platform publisher. When the APLO client is
// disabled or missing credentials, a dry-run publisher is returned so the
// sync loop keeps draining its queue.
//
//nolint:ireturn // publisher selection happens at runtime.
func BuildAploPublisher(cfg config.AploConfig, logger *slog.Logger) core.AploPublisher {
	if !cfg.Enabled || cfg.APIKey == "" {
		if logger != nil {
			logger.Warn("aplo client disabled, events will not be pushed",
				"enabled", cfg.Enabled,
				"api_key_set", cfg.APIKey != "",
			)
		}
		return aplo.NewDryRunPublisher(logger)
	}

	client, err := aplo.NewClient(cfg, logger)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to create aplo client, falling back to dry-run", "error", err)
		}
		return aplo.NewDryRunPublisher(logger)
	}
	return client
}

// AploSyncRunnerConfig contains configuration for the APLO sync runner.
type AploSyncRunnerConfig struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Aplo        config.AploConfig
	Sync        config.AploSyncConfig
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// RunAploSync starts the APLO sync runner service.
func RunAploSync(ctx context.Context, cfg AploSyncRunnerConfig) error {
	opts := service.AploSyncServiceOptions{
		Repo:      data.NewEventRepo(cfg.DB),
		Publisher: BuildAploPublisher(cfg.Aplo, cfg.Logger),
		Config:    cfg.Sync,
		Logger:    cfg.Logger,
		Metrics:   cfg.Metrics,
	}

	// Distributed tick lock so only one replica pushes per interval
	if cfg.RedisClient != nil {
		opts.Cache = data.NewRedisCacheRepo(cfg.RedisClient)
	}

	runner, err := service.NewAploSyncService(opts)
	if err != nil {
		return fmt.Errorf("create aplo sync runner: %w", err)
	}

	return runner.Run(ctx)
}

// ReaperRunnerConfig contains configuration for the invitation reaper.
type ReaperRunnerConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics statsd.Sink
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperRunnerConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
