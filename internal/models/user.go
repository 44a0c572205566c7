package models

import "time"

// User represents a user of the store.
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string     `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email     string     `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string     `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	Roles     []UserRole `json:"roles" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserRole is one role membership of a user.
type UserRole struct {
	UserID string `json:"-" gorm:"primaryKey;type:varchar(36)"`
	Role   Role   `json:"role" gorm:"primaryKey;type:varchar(20);index"`
}

// RoleList flattens the memberships into a role slice.
func (u *User) RoleList() []Role {
	roles := make([]Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Role)
	}
	return roles
}
