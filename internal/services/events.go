package services

import (
	"context"
	"log/slog"
	"time"

	"mercado/internal/metrics"

	"github.com/shopspring/decimal"
)

// Event names published to the broker.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher hands domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// NoopPublisher discards events. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// OrderCreatedEvent is emitted after an order is committed.
type OrderCreatedEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	LineCount  int             `json:"line_count"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// OrderStatusChangedEvent is emitted after a transition is committed.
type OrderStatusChangedEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publish never fails the caller; the order is already committed.
func publish(ctx context.Context, p EventPublisher, key string, event any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, event); err != nil {
		metrics.EventPublishFailures.Inc()
		slog.WarnContext(ctx, "failed to publish domain event", "key", key, "error", err)
	}
}
