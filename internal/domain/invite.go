package domain

import (
	"context"
	"time"
)

// Invite is a single-use, time-limited registration token bound to an
// email, service id and role.
type Invite struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Email     string     `json:"email"`
	ServiceID string     `json:"serviceId"`
	Role      *Role      `json:"role"`
	CreatedBy string     `json:"createdBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	UsedBy    string     `json:"usedBy,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsUsed reports whether the invite has been redeemed.
func (i *Invite) IsUsed() bool { return i.UsedAt != nil }

// IsExpired reports whether the invite is past its expiry at now.
func (i *Invite) IsExpired(now time.Time) bool { return !now.Before(i.ExpiresAt) }

// Check returns the error a caller should see for an unusable invite.
func (i *Invite) Check(now time.Time) error {
	if i.IsUsed() {
		return ErrInviteUsed
	}
	if i.IsExpired(now) {
		return ErrInviteExpired
	}
	return nil
}

// InviteRepository defines data access for invites
type InviteRepository interface {
	Create(ctx context.Context, invite *Invite) error
	GetByToken(ctx context.Context, token string) (*Invite, error)
	// Redeem atomically claims the invite and creates user from it. The
	// user's email, service id and role are taken from the invite. Exactly
	// one concurrent caller succeeds; the rest get ErrInviteUsed.
	Redeem(ctx context.Context, token string, user *User, at time.Time) (*Invite, error)
}
