package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Stores groups the repositories that take part in one unit of work.
type Stores struct {
	Carts    CartRepository
	Orders   OrderRepository
	Products ProductRepository
}

// TxManager runs fn inside a single database transaction. Returning an error
// from fn rolls back every write made through the given stores.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(s Stores) error) error
}

// GORMTxManager is the GORM implementation of TxManager.
type GORMTxManager struct {
	db *gorm.DB
}

// NewGORMTxManager creates a new GORMTxManager.
func NewGORMTxManager(db *gorm.DB) *GORMTxManager {
	return &GORMTxManager{db: db}
}

func (m *GORMTxManager) WithinTx(ctx context.Context, fn func(s Stores) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Stores{
			Carts:    NewGORMCartRepository(tx),
			Orders:   NewGORMOrderRepository(tx),
			Products: NewGORMProductRepository(tx),
		})
	})
}
