package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type InviteRepository struct{ s *Store }

func (s *Store) hydrateInvite(inv *domain.Invite) *domain.Invite {
	c := *inv
	if inv.Role != nil {
		if role, ok := s.roles[inv.Role.ID]; ok {
			c.Role = cloneRole(role)
		}
	}
	return &c
}

func (r *InviteRepository) Create(_ context.Context, inv *domain.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.invites[inv.Token]; exists {
		return domain.Conflict("invite token already exists")
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.CreatedAt = time.Now().UTC()
	stored := *inv
	r.s.invites[inv.Token] = &stored
	return nil
}

func (r *InviteRepository) GetByToken(_ context.Context, token string) (*domain.Invite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invites[token]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return r.s.hydrateInvite(inv), nil
}

func (r *InviteRepository) Redeem(_ context.Context, token string, u *domain.User, at time.Time) (*domain.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[token]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	if err := inv.Check(at); err != nil {
		return nil, err
	}
	u.Email, u.ServiceID, u.Role = inv.Email, inv.ServiceID, inv.Role
	if err := r.s.insertUser(u); err != nil {
		return nil, err
	}
	usedAt := at
	inv.UsedAt, inv.UsedBy = &usedAt, u.ID
	u.Role = r.s.hydrate(u).Role
	return r.s.hydrateInvite(inv), nil
}
