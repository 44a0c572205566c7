package repositories

import (
	"context"

	"mercado/internal/models"

	"github.com/shopspring/decimal"
)

// CartRepository is the only write path for carts and cart lines.
type CartRepository interface {
	// FindActive returns the user's active cart with its lines, or ErrNotFound.
	FindActive(ctx context.Context, userID string) (*models.Cart, error)
	// Create inserts a new active cart; ErrDuplicate if the user already has one.
	Create(ctx context.Context, cart *models.Cart) error
	// UpsertLine adds quantity to the product's line, inserting it when absent,
	// and records unitPrice as the line's current price.
	UpsertLine(ctx context.Context, cartID, productID string, quantity int, unitPrice decimal.Decimal) (*models.CartLine, error)
	// DecrementLine lowers the quantity by one, repricing the line at unitPrice,
	// and removes the line when it reaches zero. It reports whether the line was removed.
	DecrementLine(ctx context.Context, cartID, productID string, unitPrice decimal.Decimal) (bool, error)
	DeleteLine(ctx context.Context, cartID, productID string) error
	DeleteLines(ctx context.Context, cartID string) error
	// Deactivate retires an active cart; ErrNotFound if it is no longer active.
	Deactivate(ctx context.Context, cartID string) error
	CountActive(ctx context.Context, userID string) (int64, error)
}
