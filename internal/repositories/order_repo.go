package repositories

import (
	"context"

	"mercado/internal/models"
)

// OrderUpdate carries the optional metadata written together with a status change.
type OrderUpdate struct {
	Method  string
	Address string
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order and its lines.
	Create(ctx context.Context, order *models.Order) error
	// GetByID returns an active order with its lines.
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	// UpdateStatus moves an active order from one status to another. It matches
	// nothing, and returns ErrNotFound, if the order is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, meta OrderUpdate) error
	SoftDelete(ctx context.Context, id string) error
}
