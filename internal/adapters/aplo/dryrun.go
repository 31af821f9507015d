package aplo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/communeo/communeo-api/internal/domain/model"
)

// DryRunPublisher logs events instead of pushing them to the platform.
// Used when the APLO client is disabled so the sync loop stays observable
// in environments without platform credentials.
type DryRunPublisher struct {
	logger *slog.Logger
}

// NewDryRunPublisher creates a publisher that only logs.
func NewDryRunPublisher(logger *slog.Logger) *DryRunPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunPublisher{logger: logger.With("component", "aplo_dry_run")}
}

// Publish logs the event and returns a synthetic remote id.
func (p *DryRunPublisher) Publish(ctx context.Context, ev *model.Event) (string, error) {
	p.logger.InfoContext(ctx, "dry-run: would publish event",
		"event_id", ev.ID,
		"title", ev.Title,
		"commune_id", ev.CommuneID,
	)
	return fmt.Sprintf("dry-run-%d", ev.ID), nil
}
