package core

import (
	"context"
	"time"

	"github.com/communeo/communeo-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// ProfileRepository defines the interface for user profile data operations.
type ProfileRepository interface {
	// GetByUserID returns the profile for a user, with its commune joined when one is assigned.
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error)
	Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*model.Profile, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// EventRepository defines the interface for event data operations.
type EventRepository interface {
	Create(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	List(ctx context.Context, opts model.EventsListOptions) ([]*model.Event, error)
	Count(ctx context.Context, opts model.EventsListOptions) (int, error)
	Update(ctx context.Context, id int64, req model.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// SetStatus transitions an event's moderation status and returns the updated row.
	SetStatus(ctx context.Context, params SetEventStatusParams) (*model.Event, error)
	// StatusCounts aggregates events by moderation status, optionally scoped to a commune.
	StatusCounts(ctx context.Context, communeID *int64) (*model.EventStatusCounts, error)

	// ListPendingSync returns approved events whose platform sync is still pending or errored.
	ListPendingSync(ctx context.Context, limit int) ([]*model.Event, error)
	// MarkSynced records a successful platform push along with the remote event id.
	MarkSynced(ctx context.Context, params MarkEventSyncedParams) error
	// MarkSyncError records a failed platform push with the error message.
	MarkSyncError(ctx context.Context, id int64, errMsg string) error
}

// SetEventStatusParams groups parameters for EventRepository.SetStatus.
type SetEventStatusParams struct {
	ID         int64
	Status     model.EventStatus
	ReviewedBy string
}

// MarkEventSyncedParams groups parameters for EventRepository.MarkSynced.
type MarkEventSyncedParams struct {
	ID          int64
	AploEventID string
	SyncedAt    time.Time
}

// CategoryRepository defines the interface for event category data operations.
type CategoryRepository interface {
	Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// CommuneRepository defines the interface for commune data operations.
type CommuneRepository interface {
	Create(ctx context.Context, req *model.CreateCommuneRequest) (*model.Commune, error)
	GetByID(ctx context.Context, id int64) (*model.Commune, error)
	GetByName(ctx context.Context, name string) (*model.Commune, error)
	List(ctx context.Context, limit, offset int) ([]*model.Commune, error)
	Update(ctx context.Context, id int64, req model.UpdateCommuneRequest) (*model.Commune, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// SubscriptionRepository defines the interface for billing subscription data operations.
type SubscriptionRepository interface {
	Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, error)
	GetByID(ctx context.Context, id int64) (*model.Subscription, error)
	// GetActiveByCommune returns the commune's active subscription, or a NotFound error.
	GetActiveByCommune(ctx context.Context, communeID int64) (*model.Subscription, error)
	List(ctx context.Context, limit, offset int) ([]*model.Subscription, error)
	UpdateStatus(ctx context.Context, id int64, status model.SubscriptionStatus) (*model.Subscription, error)
}

// OnboardingRepository defines the interface for onboarding progress data operations.
type OnboardingRepository interface {
	// GetByUserID returns the user's onboarding progress, or a NotFound error if none exists.
	GetByUserID(ctx context.Context, userID string) (*model.OnboardingProgress, error)
	// Upsert inserts or updates the user's onboarding progress in a single statement.
	Upsert(ctx context.Context, req *model.UpsertOnboardingRequest) (*model.OnboardingProgress, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// CreateInvitationParams groups parameters for InvitationRepository.Create.
// The service layer owns token generation and expiry policy.
type CreateInvitationParams struct {
	Req       *model.CreateInvitationRequest
	Token     string
	ExpiresAt time.Time
}

// InvitationRepository defines the interface for team invitation data operations.
type InvitationRepository interface {
	Create(ctx context.Context, params CreateInvitationParams) (*model.TeamInvitation, error)
	GetByToken(ctx context.Context, token string) (*model.TeamInvitation, error)
	ListByCommune(ctx context.Context, communeID int64) ([]*model.TeamInvitation, error)
	// MarkAccepted flags an invitation as used; returns false when the token is unknown.
	MarkAccepted(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// DeleteExpired removes invitations past their expiry, up to batchSize rows per call.
	DeleteExpired(ctx context.Context, batchSize int) (int64, error)
}

// NotificationRepository defines the interface for admin notification data operations.
type NotificationRepository interface {
	Create(ctx context.Context, req *model.CreateNotificationRequest) (*model.AdminNotification, error)
	List(ctx context.Context, opts model.NotificationListOptions) ([]*model.AdminNotification, error)
	MarkRead(ctx context.Context, id int64) (bool, error)
	UnreadCount(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// AploPublisher pushes approved events to the APLO platform.
type AploPublisher interface {
	// Publish sends the event to the platform and returns the remote event id.
	Publish(ctx context.Context, ev *model.Event) (string, error)
}
