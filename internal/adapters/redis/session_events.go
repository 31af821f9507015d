package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
)

// DefaultSessionChannel is the pub/sub channel used for session change events.
const DefaultSessionChannel = "communeo:session-events"

// SessionEvents broadcasts session sign-in and sign-out notifications over a
// Redis pub/sub channel so every process sees session changes, not just the
// one that handled the login request.
type SessionEvents struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewSessionEvents creates a session event feed on the default channel.
func NewSessionEvents(client redis.UniversalClient, logger *slog.Logger) *SessionEvents {
	return NewSessionEventsWithChannel(client, DefaultSessionChannel, logger)
}

// NewSessionEventsWithChannel creates a session event feed on a custom channel.
func NewSessionEventsWithChannel(client redis.UniversalClient, channel string, logger *slog.Logger) *SessionEvents {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionEvents{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Publish broadcasts a session event to all subscribers.
func (e *SessionEvents) Publish(ctx context.Context, ev domainauth.SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := e.client.Publish(ctx, e.channel, data).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// Subscribe returns a channel delivering session events until ctx is canceled.
// Events that fail to decode are logged and skipped so one bad payload does
// not stall the feed.
func (e *SessionEvents) Subscribe(ctx context.Context) (<-chan domainauth.SessionEvent, error) {
	sub := e.client.Subscribe(ctx, e.channel)

	// Confirm the subscription before returning so callers never miss events
	// published after Subscribe returns.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", e.channel, err)
	}

	out := make(chan domainauth.SessionEvent)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domainauth.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					e.logger.Warn("dropping malformed session event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
