// Package mocks provides mock implementations for testing the communeo services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockEventRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(event, nil)
package mocks

// Generate mock for EventRepository interface from internal/core package.
// This creates MockEventRepository with methods for all EventRepository interface methods:
// Create, GetByID, List, Count, Update, Delete, SetStatus, StatusCounts,
// ListPendingSync, MarkSynced, MarkSyncError
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=event_repository_mock.go github.com/communeo/communeo-api/internal/core EventRepository

// Generate mock for ProfileRepository interface from internal/core package.
// This creates MockProfileRepository with methods for all ProfileRepository interface methods:
// GetByUserID, Create, Update, List, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_repository_mock.go github.com/communeo/communeo-api/internal/core ProfileRepository

// Generate mock for NotificationRepository interface from internal/core package.
// This creates MockNotificationRepository with methods for all NotificationRepository interface methods:
// Create, List, MarkRead, UnreadCount, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=notification_repository_mock.go github.com/communeo/communeo-api/internal/core NotificationRepository

// Generate mock for SubscriptionRepository interface from internal/core package.
// This creates MockSubscriptionRepository with methods for all SubscriptionRepository interface methods:
// Create, GetByID, GetActiveByCommune, List, UpdateStatus
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=subscription_repository_mock.go github.com/communeo/communeo-api/internal/core SubscriptionRepository

// Generate mock for AploPublisher interface from internal/core package.
// This creates MockAploPublisher with methods for all AploPublisher interface methods:
// Publish
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=aplo_publisher_mock.go github.com/communeo/communeo-api/internal/core AploPublisher

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Exists, SetIfNotExists, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/communeo/communeo-api/internal/core CacheRepository
