package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type GroupRepository struct{ s *Store }

func cloneGroup(g *domain.Group) *domain.Group {
	c := *g
	c.Members = cloneStrings(g.Members)
	c.Admins = cloneStrings(g.Admins)
	return &c
}

func (r *GroupRepository) Create(_ context.Context, g *domain.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now().UTC()
	r.s.groups[g.ID] = cloneGroup(g)
	return nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (*domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return cloneGroup(g), nil
}

func (r *GroupRepository) ListForMember(_ context.Context, userID string) ([]*domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Group{}
	for _, g := range r.s.groups {
		if g.HasMember(userID) {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *GroupRepository) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.groups[groupID]
	if !ok {
		return false, domain.ErrGroupNotFound
	}
	return g.HasMember(userID), nil
}
