package services_test

import (
	"context"
	"testing"
	"time"

	"mercado/internal/apperrors"
	"mercado/internal/models"
	"mercado/internal/realtime"
	"mercado/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_NotifyAdmins_OneRowPerAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	root := e.user(t, "root", models.RoleAdmin)
	ops := e.user(t, "ops", models.RoleAdmin, models.RoleSeller)
	buyer := e.user(t, "buyer", models.RoleBuyer)

	room := e.hub.Join(realtime.AdminRoom)
	defer e.hub.Leave(room)

	rows, err := e.notifications.NotifyAdmins(ctx, models.NotificationNewOrder, "new order", "o-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Len(t, room.Events(), 1)

	for _, admin := range []models.Identity{root, ops} {
		list, err := e.notifications.List(ctx, admin, true)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "o-1", list[0].EntityID)
		assert.Equal(t, models.NotificationPending, list[0].State)
	}

	none, err := e.notifications.List(ctx, buyer, false)
	require.NoError(t, err)
	assert.Empty(t, none)

	// Reading one admin's copy leaves the other unread.
	mine, err := e.notifications.List(ctx, root, true)
	require.NoError(t, err)
	_, err = e.notifications.MarkRead(ctx, root, mine[0].ID)
	require.NoError(t, err)

	rootUnread, err := e.notifications.List(ctx, root, true)
	require.NoError(t, err)
	assert.Empty(t, rootUnread)
	opsUnread, err := e.notifications.List(ctx, ops, true)
	require.NoError(t, err)
	assert.Len(t, opsUnread, 1)
}

func TestNotificationService_MarkRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buyer := e.user(t, "buyer", models.RoleBuyer)
	other := e.user(t, "other", models.RoleBuyer)

	n, err := e.notifications.NotifyUser(ctx, buyer.UserID, models.NotificationAnnouncement, "hello", "")
	require.NoError(t, err)

	_, err = e.notifications.MarkRead(ctx, other, n.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	read, err := e.notifications.MarkRead(ctx, buyer, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, read.State)
	require.NotNil(t, read.ReadAt)

	again, err := e.notifications.MarkRead(ctx, buyer, n.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, *read.ReadAt, *again.ReadAt, time.Second)

	all, err := e.notifications.List(ctx, buyer, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNotificationService_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", models.RoleAdmin)
	buyer := e.user(t, "buyer", models.RoleBuyer)

	inbox := e.hub.Join(realtime.UserRoom(buyer.UserID))
	defer e.hub.Leave(inbox)

	in := services.CreateNotificationInput{UserID: buyer.UserID, Type: models.NotificationAnnouncement, Message: "maintenance tonight"}

	_, err := e.notifications.Create(ctx, buyer, in)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	n, err := e.notifications.Create(ctx, admin, in)
	require.NoError(t, err)
	require.Len(t, inbox.Events(), 1)
	ev := <-inbox.Events()
	assert.Equal(t, services.LiveNewNotification, ev.Event)
	assert.Equal(t, n.ID, ev.NotificationID)

	in.UserID = "ghost"
	_, err = e.notifications.Create(ctx, admin, in)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
