package services_test

import (
	"context"
	"testing"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/realtime"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateFromCart_ConvertsAndRetiresCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "root", models.RoleAdmin)
	buyer := e.user(t, "buyer", models.RoleBuyer)
	p1 := e.product(t, "Kettle", "100")
	p2 := e.product(t, "Teapot", "50")

	admins := e.hub.Join(realtime.AdminRoom)
	defer e.hub.Leave(admins)

	_, err := e.carts.AddLine(ctx, buyer.UserID, p1.ID, 2)
	require.NoError(t, err)
	_, err = e.carts.AddLine(ctx, buyer.UserID, p2.ID, 1)
	require.NoError(t, err)

	order, err := e.orders.CreateFromCart(ctx, buyer, "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.DefaultPaymentMethod, order.Method)
	assert.True(t, order.Active)
	assert.True(t, decimal.NewFromInt(250).Equal(order.Total))
	require.Len(t, order.Lines, 2)
	byProduct := map[string]models.OrderLine{}
	for _, l := range order.Lines {
		byProduct[l.ProductID] = l
	}
	assert.Equal(t, 2, byProduct[p1.ID].Quantity)
	assert.True(t, decimal.NewFromInt(200).Equal(byProduct[p1.ID].Subtotal))
	assert.Equal(t, "Teapot", byProduct[p2.ID].ProductName)

	carts := repositories.NewGORMCartRepository(e.db)
	n, err := carts.CountActive(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Zero(t, n)
	var lineCount int64
	require.NoError(t, e.db.Model(&models.CartLine{}).Count(&lineCount).Error)
	assert.Zero(t, lineCount)

	require.Len(t, admins.Events(), 1)
	ev := <-admins.Events()
	assert.Equal(t, services.LiveNewOrder, ev.Event)
	assert.Equal(t, order.ID, ev.EntityID)

	published := e.events.snapshot()
	require.Len(t, published, 1)
	created, ok := published[0].(services.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, services.EventOrderCreated, created.Type)
	assert.Equal(t, 2, created.LineCount)
}

func TestOrderService_CreateFromCart_EmptyCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer := e.user(t, "buyer", models.RoleBuyer)

	_, err := e.orders.CreateFromCart(ctx, buyer, "card")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	_, err = e.carts.GetOrCreateActive(ctx, buyer.UserID)
	require.NoError(t, err)
	_, err = e.orders.CreateFromCart(ctx, buyer, "card")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	var orders int64
	require.NoError(t, e.db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestOrderService_SnapshotSurvivesPriceChange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer := e.user(t, "buyer", models.RoleBuyer)
	p := e.product(t, "Desk", "80")

	_, err := e.carts.AddLine(ctx, buyer.UserID, p.ID, 1)
	require.NoError(t, err)
	order, err := e.orders.CreateFromCart(ctx, buyer, "card")
	require.NoError(t, err)

	p.Price = decimal.NewFromInt(999)
	require.NoError(t, e.products.UpdateProduct(ctx, p))

	reread, err := e.orders.Get(ctx, buyer, order.ID)
	require.NoError(t, err)
	require.Len(t, reread.Lines, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(reread.Lines[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(80).Equal(reread.Total))
}

func TestOrderService_CreateFromCart_UsesPriceAtConversion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer := e.user(t, "buyer", models.RoleBuyer)
	p := e.product(t, "Lamp", "100")

	_, err := e.carts.AddLine(ctx, buyer.UserID, p.ID, 2)
	require.NoError(t, err)

	p.Price = decimal.NewFromInt(150)
	require.NoError(t, e.products.UpdateProduct(ctx, p))

	order, err := e.orders.CreateFromCart(ctx, buyer, "card")
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.True(t, decimal.NewFromInt(150).Equal(order.Lines[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(300).Equal(order.Lines[0].Subtotal))
	assert.True(t, decimal.NewFromInt(300).Equal(order.Total))
}

func TestOrderService_CreateFromCart_ProductGone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer := e.user(t, "buyer", models.RoleBuyer)
	p := e.product(t, "Lamp", "100")

	_, err := e.carts.AddLine(ctx, buyer.UserID, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, e.db.Delete(&models.Product{}, "id = ?", p.ID).Error)

	_, err = e.orders.CreateFromCart(ctx, buyer, "card")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	// Nothing was written: the cart is still active with its line.
	cart, err := e.carts.GetOrCreateActive(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
	var orders int64
	require.NoError(t, e.db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestOrderService_Transition_FollowsTable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", models.RoleAdmin)
	buyer := e.user(t, "buyer", models.RoleBuyer)

	inbox := e.hub.Join(realtime.UserRoom(buyer.UserID))
	defer e.hub.Leave(inbox)

	order, err := e.orders.Create(ctx, buyer, "card")
	require.NoError(t, err)

	for _, next := range []models.OrderStatus{models.StatusPaid, models.StatusShipped} {
		updated, err := e.orders.Transition(ctx, admin, order.ID, services.TransitionInput{Status: string(next), Address: "Main St 1"})
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = e.orders.Transition(ctx, admin, order.ID, services.TransitionInput{Status: "pending"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = e.orders.Transition(ctx, admin, order.ID, services.TransitionInput{Status: "shipped"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = e.orders.Transition(ctx, admin, order.ID, services.TransitionInput{Status: "lost"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	current, err := e.orders.Get(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, current.Status)
	assert.Equal(t, "Main St 1", current.Address)

	assert.Len(t, inbox.Events(), 2)
	ev := <-inbox.Events()
	assert.Equal(t, services.LiveOrderStatus, ev.Event)
	assert.NotEmpty(t, ev.NotificationID)

	owned, err := e.notifications.List(ctx, buyer, true)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestOrderService_Transition_OwnerMayOnlyCancel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer := e.user(t, "buyer", models.RoleBuyer)
	other := e.user(t, "other", models.RoleBuyer)

	order, err := e.orders.Create(ctx, buyer, "card")
	require.NoError(t, err)

	_, err = e.orders.Transition(ctx, buyer, order.ID, services.TransitionInput{Status: "paid"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = e.orders.Transition(ctx, other, order.ID, services.TransitionInput{Status: "cancelled"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	cancelled, err := e.orders.Transition(ctx, buyer, order.ID, services.TransitionInput{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	_, err = e.orders.Transition(ctx, buyer, order.ID, services.TransitionInput{Status: "cancelled"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestOrderService_ListScopesAndPaginates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", models.RoleAdmin)
	alice := e.user(t, "alice", models.RoleBuyer)
	bob := e.user(t, "bob", models.RoleBuyer)

	for i := 0; i < 3; i++ {
		_, err := e.orders.Create(ctx, alice, "card")
		require.NoError(t, err)
	}
	_, err := e.orders.Create(ctx, bob, "cash")
	require.NoError(t, err)

	page, err := e.orders.List(ctx, alice, models.OrderFilter{UserID: bob.UserID, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	for _, o := range page.Orders {
		assert.Equal(t, alice.UserID, o.UserID)
	}

	all, err := e.orders.List(ctx, admin, models.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Pagination.TotalItems)
	assert.Equal(t, 10, all.Pagination.ItemsPerPage)

	_, err = e.orders.List(ctx, admin, models.OrderFilter{Status: "lost"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestOrderService_SoftDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", models.RoleAdmin)
	buyer := e.user(t, "buyer", models.RoleBuyer)

	order, err := e.orders.Create(ctx, buyer, "card")
	require.NoError(t, err)

	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(e.orders.SoftDelete(ctx, buyer, order.ID)))
	require.NoError(t, e.orders.SoftDelete(ctx, admin, order.ID))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(e.orders.SoftDelete(ctx, admin, order.ID)))

	_, err = e.orders.Get(ctx, admin, order.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	page, err := e.orders.List(ctx, admin, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
}

func TestOrderService_Get_ForeignOrderIsForbidden(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", models.RoleBuyer)
	bob := e.user(t, "bob", models.RoleSeller)

	order, err := e.orders.Create(ctx, alice, "card")
	require.NoError(t, err)

	_, err = e.orders.Get(ctx, bob, order.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = e.orders.Create(ctx, alice, "  ")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
