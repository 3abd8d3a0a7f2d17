package domain

import (
	"context"
	"strings"
	"time"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserPending UserStatus = "pending"
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

// CanTransition reports whether an account may move from s to next.
// Accounts never return to pending; blocked and active may swap.
func (s UserStatus) CanTransition(next UserStatus) bool {
	switch s {
	case UserPending:
		return next == UserActive || next == UserBlocked
	case UserActive:
		return next == UserBlocked
	case UserBlocked:
		return next == UserActive
	}
	return false
}

// User represents a warden network member
type User struct {
	ID           string     `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email,omitempty"`
	ServiceID    string     `json:"serviceId,omitempty"`
	CNICHash     string     `json:"-"`
	CNICLast4    string     `json:"cnicLast4,omitempty"`
	PasswordHash string     `json:"-"`
	Role         *Role      `json:"role"`
	Status       UserStatus `json:"status"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	CoverURL     string     `json:"coverUrl,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Station      string     `json:"station,omitempty"`
	City         string     `json:"city,omitempty"`
	IsSuperAdmin bool       `json:"isSuperAdmin"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// RoleName returns the name of the user's role or "" when unhydrated.
func (u *User) RoleName() RoleName {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CNICLast4 returns the last four digits of a CNIC, ignoring separators.
func CNICLast4(cnic string) string {
	digits := make([]byte, 0, len(cnic))
	for i := 0; i < len(cnic); i++ {
		if cnic[i] >= '0' && cnic[i] <= '9' {
			digits = append(digits, cnic[i])
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}

// ProfileUpdate holds the self-service profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName  *string
	Station   *string
	City      *string
	Phone     *string
	AvatarURL *string
	CoverURL  *string
}

// UserFilter narrows user listings.
type UserFilter struct {
	Status UserStatus
	Limit  int
}

// StatusChange is a conditional status update: it applies only while the
// current status is one of From.
type StatusChange struct {
	UserID     string
	From       []UserStatus
	To         UserStatus
	ApprovedBy string
	At         time.Time
}

// UserRepository defines data access for users. Reads return users with
// their role hydrated.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByServiceID(ctx context.Context, serviceID string) (*User, error)
	ExistsByEmailOrServiceID(ctx context.Context, email, serviceID string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	UpdateStatus(ctx context.Context, change StatusChange) (*User, error)
	UpdateRole(ctx context.Context, userID, roleID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}
