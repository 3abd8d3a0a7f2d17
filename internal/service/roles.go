package service

import (
	"context"
	"errors"
	"time"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/pkg/cache"
)

// RoleResolver looks roles up by name through a short-lived cache. Roles
// change only when seeded.
type RoleResolver struct {
	repo  domain.RoleRepository
	cache *cache.Cache[*domain.Role]
}

func NewRoleResolver(repo domain.RoleRepository, ttl time.Duration) *RoleResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RoleResolver{repo: repo, cache: cache.New[*domain.Role](ttl)}
}

// ByName resolves name, defaulting to Warden when empty. Unknown names are
// a validation error.
func (r *RoleResolver) ByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	if name == "" {
		name = domain.RoleWarden
	}
	if !name.Valid() {
		return nil, domain.Invalid("role not found")
	}
	role, err := r.cache.GetOrLoad("role:"+string(name), func() (*domain.Role, error) {
		return r.repo.GetByName(ctx, name)
	})
	if errors.Is(err, domain.ErrRoleNotFound) {
		return nil, domain.Invalid("role not found")
	}
	return role, err
}

// Invalidate drops cached roles.
func (r *RoleResolver) Invalidate() { r.cache.Invalidate("role:") }
