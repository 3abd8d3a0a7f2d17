package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/pkg/config"
)

// Seeder installs the fixed roles and the first super admin.
type Seeder struct {
	roles  domain.RoleRepository
	users  domain.UserRepository
	hasher *auth.Hasher
	logger *slog.Logger
}

func NewSeeder(roles domain.RoleRepository, users domain.UserRepository, hasher *auth.Hasher, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{roles: roles, users: users, hasher: hasher, logger: logger}
}

// Run seeds roles, then the super admin when one is configured.
func (s *Seeder) Run(ctx context.Context, admin config.SeedAdmin) error {
	if err := s.SeedRoles(ctx); err != nil {
		return err
	}
	if admin.Email == "" && admin.ServiceID == "" {
		s.logger.Info("no seed admin configured")
		return nil
	}
	_, _, err := s.SeedSuperAdmin(ctx, admin)
	return err
}

// SeedRoles upserts the four roles with their permissions.
func (s *Seeder) SeedRoles(ctx context.Context) error {
	names := []domain.RoleName{domain.RoleWarden, domain.RoleModerator, domain.RoleAdmin, domain.RoleSuperAdmin}
	for _, name := range names {
		perms := make([]string, 0, len(security.RolePermissions[name]))
		for _, p := range security.RolePermissions[name] {
			perms = append(perms, string(p))
		}
		sort.Strings(perms)
		if err := s.roles.Upsert(ctx, &domain.Role{Name: name, Permissions: perms}); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}
	s.logger.Info("roles seeded", slog.Int("count", len(names)))
	return nil
}

// SeedSuperAdmin creates an active super admin unless an account with the
// same email or service id exists. created is false in that case.
func (s *Seeder) SeedSuperAdmin(ctx context.Context, admin config.SeedAdmin) (*domain.User, bool, error) {
	if admin.Password == "" && admin.CNIC == "" {
		return nil, false, errors.New("seed admin needs a password or CNIC")
	}
	email, serviceID := domain.NormalizeEmail(admin.Email), strings.TrimSpace(admin.ServiceID)

	if existing, err := s.existing(ctx, email, serviceID); err != nil || existing != nil {
		return existing, false, err
	}

	role, err := s.roles.GetByName(ctx, domain.RoleSuperAdmin)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load super admin role: %w", err)
	}
	user := &domain.User{
		FullName:     admin.FullName,
		Email:        email,
		ServiceID:    serviceID,
		Role:         role,
		Status:       domain.UserActive,
		IsSuperAdmin: true,
	}
	if admin.Password != "" {
		if err := validatePassword(admin.Password); err != nil {
			return nil, false, err
		}
		if user.PasswordHash, err = s.hasher.Hash(admin.Password); err != nil {
			return nil, false, err
		}
	}
	if admin.CNIC != "" {
		if user.CNICHash, err = s.hasher.Hash(admin.CNIC); err != nil {
			return nil, false, err
		}
		user.CNICLast4 = domain.CNICLast4(admin.CNIC)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create super admin: %w", err)
	}
	s.logger.Info("super admin seeded", slog.String("user_id", user.ID))
	return user, true, nil
}

func (s *Seeder) existing(ctx context.Context, email, serviceID string) (*domain.User, error) {
	if email != "" {
		u, err := s.users.GetByEmail(ctx, email)
		if err == nil || !errors.Is(err, domain.ErrUserNotFound) {
			return u, err
		}
	}
	if serviceID != "" {
		u, err := s.users.GetByServiceID(ctx, serviceID)
		if err == nil || !errors.Is(err, domain.ErrUserNotFound) {
			return u, err
		}
	}
	return nil, nil
}
