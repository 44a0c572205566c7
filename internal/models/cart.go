package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is a user's mutable shopping cart. Only one row per user may be active;
// the partial unique index enforces it at the storage layer.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"type:varchar(36);not null;index:idx_carts_active_user,unique,where:active = true"`
	Active    bool       `json:"active" gorm:"not null;default:true"`
	Lines     []CartLine `json:"lines" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total is the sum of the line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Lines {
		total = total.Add(c.Lines[i].Subtotal)
	}
	return total
}

// CartLine is one product in a cart. UnitPrice is the catalog price seen on the
// latest add; Subtotal is always derived, never stored.
type CartLine struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string          `json:"cart_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_lines_cart_product"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_lines_cart_product"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Recompute refreshes the derived subtotal.
func (l *CartLine) Recompute() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *CartLine) AfterFind(tx *gorm.DB) error {
	l.Recompute()
	return nil
}
