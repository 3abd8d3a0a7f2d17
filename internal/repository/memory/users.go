package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type UserRepository struct{ s *Store }

// hydrate returns a copy of u with its role resolved. Callers hold the lock.
func (s *Store) hydrate(u *domain.User) *domain.User {
	c := *u
	if u.Role != nil {
		if role, ok := s.roles[u.Role.ID]; ok {
			c.Role = cloneRole(role)
		} else {
			c.Role = &domain.Role{ID: u.Role.ID}
		}
	}
	return &c
}

func (s *Store) userExists(email, serviceID string) bool {
	for _, u := range s.users {
		if (email != "" && u.Email == email) || (serviceID != "" && u.ServiceID == serviceID) {
			return true
		}
	}
	return false
}

// insertUser assigns ids and timestamps and stores u. Callers hold the lock.
func (s *Store) insertUser(u *domain.User) error {
	if s.userExists(u.Email, u.ServiceID) {
		return domain.ErrUserExists
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	if u.Role != nil {
		stored.Role = &domain.Role{ID: u.Role.ID}
	}
	s.users[u.ID] = &stored
	return nil
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(u)
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.s.hydrate(u), nil
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			return r.s.hydrate(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByServiceID(_ context.Context, serviceID string) (*domain.User, error) {
	if serviceID == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.find(func(u *domain.User) bool { return u.ServiceID == serviceID })
}

func (r *UserRepository) ExistsByEmailOrServiceID(_ context.Context, email, serviceID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.userExists(email, serviceID), nil
}

func (r *UserRepository) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.User{}
	for _, u := range r.s.users {
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, r.s.hydrate(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *UserRepository) update(id string, apply func(*domain.User) error) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	next := *u
	if err := apply(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	r.s.users[id] = &next
	return r.s.hydrate(&next), nil
}

func (r *UserRepository) UpdateStatus(_ context.Context, c domain.StatusChange) (*domain.User, error) {
	return r.update(c.UserID, func(u *domain.User) error {
		if !slices.Contains(c.From, u.Status) {
			return domain.ErrInvalidStatusTransition
		}
		u.Status = c.To
		if c.ApprovedBy != "" {
			at := c.At
			u.ApprovedBy, u.ApprovedAt = c.ApprovedBy, &at
		}
		return nil
	})
}

func (r *UserRepository) UpdateRole(_ context.Context, userID, roleID string) (*domain.User, error) {
	return r.update(userID, func(u *domain.User) error {
		u.Role = &domain.Role{ID: roleID}
		return nil
	})
}

func (r *UserRepository) UpdateProfile(_ context.Context, userID string, p domain.ProfileUpdate) (*domain.User, error) {
	return r.update(userID, func(u *domain.User) error {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&u.FullName, p.FullName)
		set(&u.Station, p.Station)
		set(&u.City, p.City)
		set(&u.Phone, p.Phone)
		set(&u.AvatarURL, p.AvatarURL)
		set(&u.CoverURL, p.CoverURL)
		return nil
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, userID, hash string) error {
	_, err := r.update(userID, func(u *domain.User) error {
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (r *UserRepository) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	_, err := r.update(userID, func(u *domain.User) error {
		u.LastLoginAt = &at
		return nil
	})
	return err
}
