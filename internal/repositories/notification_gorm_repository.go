package repositories

import (
	"context"
	"fmt"
	"time"

	"mercado/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMNotificationRepository is a GORM implementation of NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{db: db}
}

func (r *GORMNotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	for i := range notifications {
		if notifications[i].ID == "" {
			notifications[i].ID = uuid.New().String()
		}
		if notifications[i].State == "" {
			notifications[i].State = models.NotificationPending
		}
	}
	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to save notifications: %w", err)
	}
	return nil
}

func (r *GORMNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("state = ?", models.NotificationPending)
	}
	var out []models.Notification
	if err := q.Order("created_at desc, id desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	return out, nil
}

func (r *GORMNotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) (*models.Notification, error) {
	var n models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return fmt.Errorf("notification %s: %w", id, translate(err))
		}
		if n.State == models.NotificationRead {
			return nil
		}
		n.State = models.NotificationRead
		n.ReadAt = &at
		return tx.Model(&n).Updates(map[string]any{"state": n.State, "read_at": at}).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}
