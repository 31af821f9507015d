package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// EventServiceOptions groups dependencies for EventService.
type EventServiceOptions struct {
	Repo          core.EventRepository        // Required: event repository
	Notifications core.NotificationRepository // Optional: admin notification rows
	Logger        *slog.Logger                // Optional: structured logger
}

// EventService provides business logic for event listings: commune-scoped
// CRUD plus the admin moderation workflow (approve/reject).
type EventService struct {
	repo          core.EventRepository
	notifications core.NotificationRepository
	logger        *slog.Logger
}

// NewEventService constructs a new EventService with validation.
func NewEventService(opts EventServiceOptions) (*EventService, error) {
	if opts.Repo == nil {
		return nil, errors.New("EventRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "event_service")
		logger.Debug("EventService initialized")
	}

	return &EventService{
		repo:          opts.Repo,
		notifications: opts.Notifications,
		logger:        logger,
	}, nil
}

// MustNewEventService constructs a new EventService and panics on error.
func MustNewEventService(opts EventServiceOptions) *EventService {
	svc, err := NewEventService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// Create submits a new event listing. Non-admin actors may only create
// events in their own commune; the creator is always the actor.
func (s *EventService) Create(
	ctx context.Context,
	actor model.User,
	req *model.CreateEventRequest,
) (*model.Event, error) {
	req.CreatorID = actor.ID
	if !actor.IsAdmin() {
		if actor.CommuneID == nil {
			return nil, apperrors.Permission("you must belong to a commune to create events")
		}
		req.CommuneID = *actor.CommuneID
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	ev, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "event created",
			"event_id", ev.ID, "commune_id", ev.CommuneID, "creator_id", ev.CreatorID)
	}
	s.notify(ctx, model.NotificationEventCreated, "New event submitted",
		fmt.Sprintf("%q is waiting for review", ev.Title), ev)

	return ev, nil
}

// GetByID retrieves an event. Non-admin actors only see events from their
// own commune.
func (s *EventService) GetByID(ctx context.Context, actor model.User, id int64) (*model.Event, error) {
	ev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.authorizeRead(actor, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// EventPage is a page of events with the total count for the filter.
type EventPage struct {
	Events []*model.Event `json:"events"`
	Total  int            `json:"total"`
}

// List returns events newest first. Non-admin actors are always scoped to
// their own commune regardless of the requested filter.
func (s *EventService) List(
	ctx context.Context,
	actor model.User,
	opts model.EventsListOptions,
) (*EventPage, error) {
	if !actor.IsAdmin() {
		if actor.CommuneID == nil {
			return &EventPage{Events: []*model.Event{}}, nil
		}
		opts.CommuneID = actor.CommuneID
	}

	events, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	total, err := s.repo.Count(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	return &EventPage{Events: events, Total: total}, nil
}

// Update applies a partial update. Only the creator, members of the event's
// commune, or an admin may update; the moderation status is not touched here.
func (s *EventService) Update(
	ctx context.Context,
	actor model.User,
	id int64,
	req model.UpdateEventRequest,
) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.authorizeWrite(actor, current); err != nil {
		return nil, err
	}

	ev, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "event updated", "event_id", id)
	}
	s.notify(ctx, model.NotificationEventUpdated, "Event updated",
		fmt.Sprintf("%q was modified", ev.Title), ev)

	return ev, nil
}

// Delete removes an event with the same authorization rules as Update.
func (s *EventService) Delete(ctx context.Context, actor model.User, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.authorizeWrite(actor, current); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("event %d not found", id)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "event deleted", "event_id", id, "actor_id", actor.ID)
	}
	return nil
}

// Approve moves a pending event to approved, queueing it for platform sync.
// Admin only.
func (s *EventService) Approve(ctx context.Context, actor model.User, id int64) (*model.Event, error) {
	return s.review(ctx, actor, id, model.EventStatusApproved)
}

// Reject moves a pending event to rejected. Admin only.
func (s *EventService) Reject(ctx context.Context, actor model.User, id int64) (*model.Event, error) {
	return s.review(ctx, actor, id, model.EventStatusRejected)
}

func (s *EventService) review(
	ctx context.Context,
	actor model.User,
	id int64,
	status model.EventStatus,
) (*model.Event, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Permission("only administrators can review events")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if current.Status != model.EventStatusPending {
		return nil, apperrors.Validationf("event %d is %s, only pending events can be reviewed", id, current.Status)
	}

	ev, err := s.repo.SetStatus(ctx, core.SetEventStatusParams{
		ID:         id,
		Status:     status,
		ReviewedBy: actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("set event status: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "event reviewed",
			"event_id", id, "status", status, "reviewed_by", actor.ID)
	}
	return ev, nil
}

// StatusCounts aggregates events by moderation status. Non-admin actors get
// their own commune's counts regardless of the requested scope.
func (s *EventService) StatusCounts(
	ctx context.Context,
	actor model.User,
	communeID *int64,
) (*model.EventStatusCounts, error) {
	if !actor.IsAdmin() {
		if actor.CommuneID == nil {
			return &model.EventStatusCounts{}, nil
		}
		communeID = actor.CommuneID
	}

	counts, err := s.repo.StatusCounts(ctx, communeID)
	if err != nil {
		return nil, fmt.Errorf("event status counts: %w", err)
	}
	return counts, nil
}

func (s *EventService) authorizeRead(actor model.User, ev *model.Event) error {
	if actor.IsAdmin() || ev.CreatorID == actor.ID {
		return nil
	}
	if actor.CommuneID != nil && *actor.CommuneID == ev.CommuneID {
		return nil
	}
	// Hide other communes' events entirely rather than acknowledging them.
	return apperrors.NotFoundf("event %d not found", ev.ID)
}

func (s *EventService) authorizeWrite(actor model.User, ev *model.Event) error {
	if actor.IsAdmin() || ev.CreatorID == actor.ID {
		return nil
	}
	if actor.CommuneID != nil && *actor.CommuneID == ev.CommuneID {
		return nil
	}
	return apperrors.Permissionf("event %d belongs to another commune", ev.ID)
}

func (s *EventService) notify(
	ctx context.Context,
	typ model.NotificationType,
	title, message string,
	ev *model.Event,
) {
	if s.notifications == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"event_id":   ev.ID,
		"commune_id": ev.CommuneID,
	})
	if err != nil {
		data = nil
	}
	_, err = s.notifications.Create(ctx, &model.CreateNotificationRequest{
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    data,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "admin notification failed",
			"type", typ, "event_id", ev.ID, "error", err)
	}
}
