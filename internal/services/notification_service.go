package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mercado/internal/apperrors"
	"mercado/internal/metrics"
	"mercado/internal/models"
	"mercado/internal/realtime"
	"mercado/internal/repositories"
)

// Live event names pushed to subscribers.
const (
	LiveNewOrder        = "new-order"
	LiveOrderStatus     = "order-status"
	LiveNewNotification = "new-notification"
)

// Pusher delivers live events to a room without blocking.
type Pusher interface {
	Publish(room string, ev realtime.Event) int
}

// Notifier is the fan-out used by the order lifecycle.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, typ, message, entityID string) (*models.Notification, error)
	NotifyAdmins(ctx context.Context, typ, message, entityID string) ([]models.Notification, error)
}

// CreateNotificationInput is an admin-authored notification.
type CreateNotificationInput struct {
	UserID   string `json:"userId" validate:"required"`
	Type     string `json:"type" validate:"required,max=50"`
	Message  string `json:"message" validate:"required,max=500"`
	EntityID string `json:"entityId" validate:"omitempty,max=36"`
}

// NotificationService persists notifications and pushes them to live subscribers.
type NotificationService struct {
	repo  repositories.NotificationRepository
	users repositories.UserRepository
	hub   Pusher
	now   func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repositories.NotificationRepository, users repositories.UserRepository, hub Pusher) *NotificationService {
	return &NotificationService{
		repo:  repo,
		users: users,
		hub:   hub,
		now:   time.Now,
	}
}

// NotifyUser stores one notification for userID, then pushes it to the user's room.
func (s *NotificationService) NotifyUser(ctx context.Context, userID, typ, message, entityID string) (*models.Notification, error) {
	batch := []models.Notification{{
		UserID:   userID,
		Type:     typ,
		Message:  message,
		EntityID: entityID,
	}}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, apperrors.Internal(err)
	}
	metrics.NotificationsStored.WithLabelValues(typ).Inc()

	n := batch[0]
	s.push(realtime.UserRoom(userID), liveEventName(typ), n.Message, n.EntityID, n.ID)
	return &n, nil
}

// NotifyAdmins stores one notification per admin, each with its own read
// state, then pushes a single event to the admin room.
func (s *NotificationService) NotifyAdmins(ctx context.Context, typ, message, entityID string) ([]models.Notification, error) {
	adminIDs, err := s.users.ListIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(adminIDs) == 0 {
		slog.WarnContext(ctx, "no admins to notify", "type", typ, "entity_id", entityID)
		return nil, nil
	}

	batch := make([]models.Notification, 0, len(adminIDs))
	for _, id := range adminIDs {
		batch = append(batch, models.Notification{
			UserID:   id,
			Type:     typ,
			Message:  message,
			EntityID: entityID,
		})
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, apperrors.Internal(err)
	}
	metrics.NotificationsStored.WithLabelValues(typ).Add(float64(len(batch)))

	s.push(realtime.AdminRoom, liveEventName(typ), message, entityID, "")
	return batch, nil
}

// Create lets a broadcaster notify any user.
func (s *NotificationService) Create(ctx context.Context, actor models.Identity, in CreateNotificationInput) (*models.Notification, error) {
	if !actor.Can(models.CapBroadcast) {
		return nil, apperrors.Forbidden("not allowed to send notifications")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("user %s not found", in.UserID)
		}
		return nil, apperrors.Internal(err)
	}
	return s.NotifyUser(ctx, in.UserID, in.Type, in.Message, in.EntityID)
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor models.Identity, unreadOnly bool) ([]models.Notification, error) {
	out, err := s.repo.ListByUser(ctx, actor.UserID, unreadOnly)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Identity, id string) (*models.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, actor.UserID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("notification %s not found", id)
		}
		return nil, apperrors.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) push(room, event, message, entityID, notificationID string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(room, realtime.Event{
		Event:          event,
		Message:        message,
		EntityID:       entityID,
		NotificationID: notificationID,
	})
}

func liveEventName(typ string) string {
	switch typ {
	case models.NotificationNewOrder:
		return LiveNewOrder
	case models.NotificationOrderStatus:
		return LiveOrderStatus
	default:
		return LiveNewNotification
	}
}
