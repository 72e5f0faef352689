package notification

import (
	"context"
)

type Service interface {
	// QueueNotification hands the notification to background workers; it is persisted and pushed later.
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error
	QueueBulkNotification(ctx context.Context, reqs []CreateNotificationRequest) error

	GetNotifications(ctx context.Context, userID string, req ListNotificationsRequest) (NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID string) error

	GetPreferences(ctx context.Context, userID string) ([]PreferenceResponse, error)
	UpdatePreference(ctx context.Context, userID string, req UpdatePreferenceRequest) (PreferenceResponse, error)

	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())

	// Stop drains the queue and waits for workers to finish.
	Stop()
}
