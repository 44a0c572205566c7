package repositories

import (
	"context"
	"time"

	"mercado/internal/models"
)

// NotificationRepository defines the interface for notification data access.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	// MarkRead flags a notification owned by userID as read.
	MarkRead(ctx context.Context, id, userID string, at time.Time) (*models.Notification, error)
}
