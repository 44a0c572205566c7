package models

import "time"

// NotificationState tracks whether the recipient has seen a notification.
type NotificationState string

const (
	NotificationPending NotificationState = "pending"
	NotificationRead    NotificationState = "read"
)

// Notification types emitted by the order lifecycle.
const (
	NotificationNewOrder     = "new-order"
	NotificationOrderStatus  = "order-status"
	NotificationAnnouncement = "announcement"
)

// Notification is the durable record of a fan-out event for one recipient.
type Notification struct {
	ID        string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string            `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Type      string            `json:"type" gorm:"type:varchar(50);not null"`
	Message   string            `json:"message" gorm:"type:varchar(500);not null"`
	EntityID  string            `json:"entity_id,omitempty" gorm:"type:varchar(36)"`
	State     NotificationState `json:"state" gorm:"type:varchar(20);not null;default:pending"`
	CreatedAt time.Time         `json:"created_at" gorm:"index"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
}
