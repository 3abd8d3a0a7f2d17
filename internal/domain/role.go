package domain

import (
	"context"
	"time"
)

// RoleName identifies one of the seeded roles.
type RoleName string

const (
	RoleWarden     RoleName = "Warden"
	RoleModerator  RoleName = "Moderator"
	RoleAdmin      RoleName = "Admin"
	RoleSuperAdmin RoleName = "Super Admin"
)

// Valid reports whether n is one of the known role names.
func (n RoleName) Valid() bool {
	switch n {
	case RoleWarden, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Role is immutable once seeded.
type Role struct {
	ID          string    `json:"id"`
	Name        RoleName  `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoleRepository defines data access for roles
type RoleRepository interface {
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name RoleName) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	// Upsert inserts the role or refreshes its permissions. Used by seeding only.
	Upsert(ctx context.Context, role *Role) error
}
