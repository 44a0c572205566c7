package models

// Role is one of the closed set of marketplace roles.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Capability is a permission granted through roles.
type Capability string

const (
	CapShop         Capability = "shop"
	CapSell         Capability = "sell"
	CapManageOrders Capability = "manage_orders"
	CapBroadcast    Capability = "broadcast"
)

var roleCapabilities = map[Role][]Capability{
	RoleBuyer:  {CapShop},
	RoleSeller: {CapShop, CapSell},
	RoleAdmin:  {CapShop, CapSell, CapManageOrders, CapBroadcast},
}

// ParseRole reports whether name is a known role.
func ParseRole(name string) (Role, bool) {
	r := Role(name)
	_, ok := roleCapabilities[r]
	return r, ok
}

// Identity is the authenticated caller attached to a request or connection.
type Identity struct {
	UserID string
	Roles  []Role
}

// Can is the single authorization check used across the service.
func (id Identity) Can(capability Capability) bool {
	for _, r := range id.Roles {
		for _, c := range roleCapabilities[r] {
			if c == capability {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether the identity belongs to the admin group.
func (id Identity) IsAdmin() bool {
	for _, r := range id.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
