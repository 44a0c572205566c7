package repositories

import (
	"context"
	"fmt"
	"time"

	"mercado/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) FindActive(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&cart, "user_id = ? AND active = ?", userID, true).Error
	if err != nil {
		return nil, fmt.Errorf("active cart for user %s: %w", userID, translate(err))
	}
	return &cart, nil
}

func (r *GORMCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	cart.Active = true
	if err := r.db.WithContext(ctx).Omit("Lines").Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart for user %s: %w", cart.UserID, translate(err))
	}
	return nil
}

func (r *GORMCartRepository) UpsertLine(ctx context.Context, cartID, productID string, quantity int, unitPrice decimal.Decimal) (*models.CartLine, error) {
	now := time.Now()
	line := models.CartLine{
		ID:        uuid.New().String(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The increment happens inside the statement, so concurrent adds never lose an update.
	updates := clause.Assignments(map[string]any{
		"quantity": gorm.Expr("cart_lines.quantity + excluded.quantity"),
	})
	updates = append(updates, clause.AssignmentColumns([]string{"unit_price", "updated_at"})...)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: updates,
	}).Create(&line).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert line for product %s: %w", productID, err)
	}

	var stored models.CartLine
	if err := r.db.WithContext(ctx).First(&stored, "cart_id = ? AND product_id = ?", cartID, productID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload line for product %s: %w", productID, translate(err))
	}
	return &stored, nil
}

func (r *GORMCartRepository) DecrementLine(ctx context.Context, cartID, productID string, unitPrice decimal.Decimal) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartLine{}).
			Where("cart_id = ? AND product_id = ? AND quantity > 1", cartID, productID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity - 1"),
				"unit_price": unitPrice,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to decrement line for product %s: %w", productID, res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		res = tx.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartLine{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove line for product %s: %w", productID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("line for product %s: %w", productID, ErrNotFound)
		}
		removed = true
		return nil
	})
	return removed, err
}

func (r *GORMCartRepository) DeleteLine(ctx context.Context, cartID, productID string) error {
	res := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartLine{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove line for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("line for product %s: %w", productID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) DeleteLines(ctx context.Context, cartID string) error {
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}

func (r *GORMCartRepository) Deactivate(ctx context.Context, cartID string) error {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND active = ?", cartID, true).
		Updates(map[string]any{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate cart %s: %w", cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("active cart %s: %w", cartID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) CountActive(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Cart{}).Where("user_id = ? AND active = ?", userID, true).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count active carts: %w", err)
	}
	return n, nil
}
