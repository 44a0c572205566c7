package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"mercado/internal/models"
	"mercado/internal/realtime"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// env wires the services against a private in-memory SQLite database.
type env struct {
	db            *gorm.DB
	hub           *realtime.Hub
	events        *recordingPublisher
	users         *repositories.GORMUserRepository
	products      *services.ProductService
	carts         *services.CartService
	orders        *services.OrderService
	notifications *services.NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repositories.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hub := realtime.NewHub(8)
	events := &recordingPublisher{}
	users := repositories.NewGORMUserRepository(db)
	products := services.NewProductService(repositories.NewGORMProductRepository(db))
	notifications := services.NewNotificationService(repositories.NewGORMNotificationRepository(db), users, hub)

	return &env{
		db:            db,
		hub:           hub,
		events:        events,
		users:         users,
		products:      products,
		carts:         services.NewCartService(repositories.NewGORMCartRepository(db), products),
		orders:        services.NewOrderService(repositories.NewGORMOrderRepository(db), repositories.NewGORMTxManager(db), notifications, events),
		notifications: notifications,
	}
}

func (e *env) user(t *testing.T, name string, roles ...models.Role) models.Identity {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x"}
	for _, r := range roles {
		u.Roles = append(u.Roles, models.UserRole{Role: r})
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return models.Identity{UserID: u.ID, Roles: roles}
}

func (e *env) product(t *testing.T, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: 10}
	require.NoError(t, e.products.CreateProduct(context.Background(), p))
	return p
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) snapshot() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}
