package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_Can(t *testing.T) {
	buyer := Identity{UserID: "u1", Roles: []Role{RoleBuyer}}
	seller := Identity{UserID: "u2", Roles: []Role{RoleSeller}}
	admin := Identity{UserID: "u3", Roles: []Role{RoleAdmin}}
	nobody := Identity{UserID: "u4"}

	assert.True(t, buyer.Can(CapShop))
	assert.False(t, buyer.Can(CapManageOrders))
	assert.True(t, seller.Can(CapSell))
	assert.False(t, seller.Can(CapBroadcast))
	assert.True(t, admin.Can(CapManageOrders))
	assert.True(t, admin.Can(CapBroadcast))
	assert.False(t, nobody.Can(CapShop))

	assert.True(t, admin.IsAdmin())
	assert.False(t, seller.IsAdmin())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("seller")
	assert.True(t, ok)
	assert.Equal(t, RoleSeller, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}
