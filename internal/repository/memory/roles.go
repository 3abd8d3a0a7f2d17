package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type RoleRepository struct{ s *Store }

func cloneRole(r *domain.Role) *domain.Role {
	if r == nil {
		return nil
	}
	c := *r
	c.Permissions = cloneStrings(r.Permissions)
	return &c
}

func (r *RoleRepository) GetByID(_ context.Context, id string) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return cloneRole(role), nil
}

func (r *RoleRepository) GetByName(_ context.Context, name domain.RoleName) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.roleByName(name)
}

func (s *Store) roleByName(name domain.RoleName) (*domain.Role, error) {
	for _, role := range s.roles {
		if role.Name == name {
			return cloneRole(role), nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *RoleRepository) List(_ context.Context) ([]*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, cloneRole(role))
	}
	return out, nil
}

func (r *RoleRepository) Upsert(_ context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			existing.Permissions = cloneStrings(role.Permissions)
			role.ID = existing.ID
			role.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	role.CreatedAt = time.Now().UTC()
	r.s.roles[role.ID] = cloneRole(role)
	return nil
}
