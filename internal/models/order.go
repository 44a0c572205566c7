package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// DefaultPaymentMethod is used when a cart is converted without an explicit method.
const DefaultPaymentMethod = "transferencia"

// orderTransitions is the complete set of legal status changes.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseOrderStatus reports whether s names a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderTransitions[st]
	return st, ok
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order is an immutable snapshot of a converted cart plus its lifecycle status.
type Order struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string          `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	Method    string          `json:"method" gorm:"type:varchar(50);not null"`
	Address   string          `json:"address,omitempty" gorm:"type:varchar(255)"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Active    bool            `json:"active" gorm:"not null;default:true;index"`
	Lines     []OrderLine     `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderLine holds the price snapshot taken at conversion time.
type OrderLine struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"type:varchar(36);not null;index"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);not null"`
	ProductName string          `json:"product_name" gorm:"type:varchar(100)"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status OrderStatus
	UserID string
	Page   int
	Limit  int
}
