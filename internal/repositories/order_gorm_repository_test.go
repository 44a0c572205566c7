package repositories

import (
	"context"
	"testing"
	"time"

	"mercado/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(userID string) *models.Order {
	return &models.Order{
		UserID: userID,
		Status: models.StatusPending,
		Method: models.DefaultPaymentMethod,
		Total:  decimal.NewFromInt(30),
		Lines: []models.OrderLine{{
			ProductID: "p1",
			Quantity:  3,
			UnitPrice: decimal.NewFromInt(10),
			Subtotal:  decimal.NewFromInt(30),
		}},
	}
}

func TestGORMOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewGORMOrderRepository(openTestDB(t))
	ctx := context.Background()

	order := newOrder("u1")
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, order.ID, got.Lines[0].OrderID)
	assert.True(t, decimal.NewFromInt(30).Equal(got.Lines[0].Subtotal))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGORMOrderRepository_UpdateStatusComparesCurrent(t *testing.T) {
	repo := NewGORMOrderRepository(openTestDB(t))
	ctx := context.Background()
	order := newOrder("u1")
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, models.StatusPending, models.StatusPaid, OrderUpdate{Method: "card"}))

	// A stale writer that still believes the order is pending matches nothing.
	err := repo.UpdateStatus(ctx, order.ID, models.StatusPending, models.StatusCancelled, OrderUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.Equal(t, "card", got.Method)
}

func TestGORMOrderRepository_ListFiltersAndOrders(t *testing.T) {
	db := openTestDB(t)
	repo := NewGORMOrderRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i, user := range []string{"u1", "u1", "u2"} {
		o := newOrder(user)
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, o))
		ids = append(ids, o.ID)
	}
	require.NoError(t, repo.SoftDelete(ctx, ids[2]))
	require.NoError(t, repo.UpdateStatus(ctx, ids[0], models.StatusPending, models.StatusCancelled, OrderUpdate{}))

	orders, total, err := repo.List(ctx, models.OrderFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, ids[1], orders[0].ID)
	assert.Equal(t, ids[0], orders[1].ID)

	orders, total, err = repo.List(ctx, models.OrderFilter{Status: models.StatusCancelled, UserID: "u1", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, ids[0], orders[0].ID)

	orders, total, err = repo.List(ctx, models.OrderFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 1)
	assert.Equal(t, ids[0], orders[0].ID)
}

func TestGORMNotificationRepository_ListAndMarkRead(t *testing.T) {
	repo := NewGORMNotificationRepository(openTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	batch := []models.Notification{
		{UserID: "u1", Type: models.NotificationNewOrder, Message: "older", CreatedAt: base},
		{UserID: "u1", Type: models.NotificationNewOrder, Message: "newer", CreatedAt: base.Add(time.Second)},
		{UserID: "u2", Type: models.NotificationNewOrder, Message: "someone else"},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	list, err := repo.ListByUser(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Message)

	_, err = repo.MarkRead(ctx, batch[0].ID, "u2", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	read, err := repo.MarkRead(ctx, batch[0].ID, "u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, read.State)

	unread, err := repo.ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "newer", unread[0].Message)
}
