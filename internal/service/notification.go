package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// NotificationServiceOptions groups dependencies for NotificationService.
type NotificationServiceOptions struct {
	Repo   core.NotificationRepository // Required: notification repository
	Logger *slog.Logger                // Optional: structured logger
}

// NotificationService provides business logic for the admin notification
// queue.
type NotificationService struct {
	repo   core.NotificationRepository
	logger *slog.Logger
}

// NewNotificationService constructs a new NotificationService with validation.
func NewNotificationService(opts NotificationServiceOptions) (*NotificationService, error) {
	if opts.Repo == nil {
		return nil, errors.New("NotificationRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "notification_service")
	}

	return &NotificationService{repo: opts.Repo, logger: logger}, nil
}

// List returns notifications, newest first.
func (s *NotificationService) List(
	ctx context.Context,
	opts model.NotificationListOptions,
) ([]*model.AdminNotification, error) {
	items, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	count, err := s.repo.UnreadCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("unread notification count: %w", err)
	}
	return count, nil
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	marked, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !marked {
		return apperrors.NotFoundf("notification %d not found", id)
	}
	return nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("notification %d not found", id)
	}
	return nil
}
