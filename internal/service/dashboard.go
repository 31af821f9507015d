package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
)

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Events        *EventService               // Required: status counts
	Subscriptions *SubscriptionService        // Optional: active subscription panel
	Notifications core.NotificationRepository // Optional: unread badge for admins
	Cache         core.CacheRepository        // Optional: short-lived counts cache
	CacheTTL      time.Duration               // Optional: defaults to 30s when Cache is set
	Logger        *slog.Logger                // Optional: structured logger
}

// DashboardService assembles the dashboard view: event counts by status,
// the commune's active subscription, and the admin unread badge. Counts are
// cached briefly since the dashboard is the most-hit view.
type DashboardService struct {
	events        *EventService
	subscriptions *SubscriptionService
	notifications core.NotificationRepository
	cache         core.CacheRepository
	cacheTTL      time.Duration
	logger        *slog.Logger
}

// Dashboard is the assembled dashboard payload.
type Dashboard struct {
	Counts       model.EventStatusCounts `json:"counts"`
	TotalEvents  int                     `json:"total_events"`
	Subscription *model.Subscription     `json:"subscription,omitempty"`
	UnreadCount  int                     `json:"unread_count,omitempty"`
}

// NewDashboardService constructs a new DashboardService with validation.
func NewDashboardService(opts DashboardServiceOptions) (*DashboardService, error) {
	if opts.Events == nil {
		return nil, errors.New("EventService is required")
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "dashboard_service")
	}

	return &DashboardService{
		events:        opts.Events,
		subscriptions: opts.Subscriptions,
		notifications: opts.Notifications,
		cache:         opts.Cache,
		cacheTTL:      ttl,
		logger:        logger,
	}, nil
}

// Get assembles the dashboard for the actor. Cache failures degrade to a
// direct query, never to an error.
func (s *DashboardService) Get(ctx context.Context, actor model.User) (*Dashboard, error) {
	counts, err := s.statusCounts(ctx, actor)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Counts:      *counts,
		TotalEvents: counts.Total(),
	}

	if s.subscriptions != nil && actor.CommuneID != nil {
		sub, subErr := s.subscriptions.ActiveForCommune(ctx, *actor.CommuneID)
		if subErr != nil {
			// The billing panel is decoration; the dashboard still renders.
			if s.logger != nil {
				s.logger.WarnContext(ctx, "active subscription lookup failed",
					"commune_id", *actor.CommuneID, "error", subErr)
			}
		} else {
			dash.Subscription = sub
		}
	}

	if s.notifications != nil && actor.IsAdmin() {
		unread, unreadErr := s.notifications.UnreadCount(ctx)
		if unreadErr != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "unread count lookup failed", "error", unreadErr)
			}
		} else {
			dash.UnreadCount = unread
		}
	}

	return dash, nil
}

func (s *DashboardService) statusCounts(ctx context.Context, actor model.User) (*model.EventStatusCounts, error) {
	key := s.cacheKey(actor)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
			var counts model.EventStatusCounts
			if unmarshalErr := json.Unmarshal(cached, &counts); unmarshalErr == nil {
				return &counts, nil
			}
		}
	}

	counts, err := s.events.StatusCounts(ctx, actor, nil)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, marshalErr := json.Marshal(counts); marshalErr == nil {
			if setErr := s.cache.Set(ctx, key, data, s.cacheTTL); setErr != nil && s.logger != nil {
				s.logger.DebugContext(ctx, "dashboard cache write failed", "error", setErr)
			}
		}
	}

	return counts, nil
}

func (s *DashboardService) cacheKey(actor model.User) string {
	if actor.IsAdmin() {
		return "dashboard:counts:all"
	}
	if actor.CommuneID != nil {
		return fmt.Sprintf("dashboard:counts:commune:%d", *actor.CommuneID)
	}
	return "dashboard:counts:none"
}
