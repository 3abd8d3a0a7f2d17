package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/featureflags"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
)

// UserService covers account administration and self-service profile edits
type UserService struct {
	users  domain.UserRepository
	roles  *RoleResolver
	hasher *auth.Hasher
	authz  *security.Authorizer
	audit  *audit.Logger
	flags  *featureflags.Flags
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(
	users domain.UserRepository,
	roles *RoleResolver,
	hasher *auth.Hasher,
	authz *security.Authorizer,
	auditLog *audit.Logger,
	flags *featureflags.Flags,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:  users,
		roles:  roles,
		hasher: hasher,
		authz:  authz,
		audit:  auditLog,
		flags:  flags,
		logger: logger,
		now:    utcNow,
	}
}

// CreateUserInput is an administrator-created account without a password.
// The user signs in with service id and CNIC until they set one.
type CreateUserInput struct {
	FullName  string          `json:"fullName"`
	Email     string          `json:"email"`
	ServiceID string          `json:"serviceId"`
	CNIC      string          `json:"cnic"`
	RoleName  domain.RoleName `json:"roleName"`
	Station   string          `json:"station"`
	City      string          `json:"city"`
	Phone     string          `json:"phone"`
}

// AccessRequestInput is a self-registration without an invite.
type AccessRequestInput struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	ServiceID string `json:"serviceId"`
	CNIC      string `json:"cnic"`
	Password  string `json:"password"`
	Station   string `json:"station"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
}

func (s *UserService) List(ctx context.Context, status domain.UserStatus) ([]*domain.User, error) {
	if status != "" && status != domain.UserPending && status != domain.UserActive && status != domain.UserBlocked {
		return nil, domain.Invalid("unknown status " + string(status))
	}
	return s.users.List(ctx, domain.UserFilter{Status: status})
}

func (s *UserService) Pending(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx, domain.UserFilter{Status: domain.UserPending})
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create adds a pending, credential-less account.
func (s *UserService) Create(ctx context.Context, actorID string, in CreateUserInput) (*domain.User, error) {
	if err := missing(field("email", in.Email), field("service id", in.ServiceID), field("CNIC", in.CNIC)); err != nil {
		return nil, err
	}
	role, err := s.roles.ByName(ctx, in.RoleName)
	if err != nil {
		return nil, err
	}
	cnicHash, err := s.hasher.Hash(in.CNIC)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FullName:  strings.TrimSpace(in.FullName),
		Email:     domain.NormalizeEmail(in.Email),
		ServiceID: strings.TrimSpace(in.ServiceID),
		CNICHash:  cnicHash,
		CNICLast4: domain.CNICLast4(in.CNIC),
		Role:      role,
		Status:    domain.UserPending,
		Station:   in.Station,
		City:      in.City,
		Phone:     in.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actorID, domain.ActionUserCreate, user.ID, map[string]any{"role": string(role.Name)})
	return s.users.GetByID(ctx, user.ID)
}

// RequestAccess registers a pending Warden when public signup is enabled.
func (s *UserService) RequestAccess(ctx context.Context, in AccessRequestInput) (*domain.User, error) {
	if !s.flags.Enabled(featureflags.PublicSignup) {
		return nil, domain.Forbidden("public registration is disabled")
	}
	if err := missing(
		field("full name", in.FullName),
		field("email", in.Email),
		field("service id", in.ServiceID),
		field("CNIC", in.CNIC),
		field("password", in.Password),
	); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	email, serviceID := domain.NormalizeEmail(in.Email), strings.TrimSpace(in.ServiceID)
	exists, err := s.users.ExistsByEmailOrServiceID(ctx, email, serviceID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	role, err := s.roles.ByName(ctx, domain.RoleWarden)
	if err != nil {
		return nil, err
	}
	cnicHash, err := s.hasher.Hash(in.CNIC)
	if err != nil {
		return nil, err
	}
	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		ServiceID:    serviceID,
		CNICHash:     cnicHash,
		CNICLast4:    domain.CNICLast4(in.CNIC),
		PasswordHash: passwordHash,
		Role:         role,
		Status:       domain.UserPending,
		Station:      in.Station,
		City:         in.City,
		Phone:        in.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, "", domain.ActionAccessRequest, user.ID, nil)
	return user, nil
}

func (s *UserService) changeStatus(ctx context.Context, actorID, userID, action string, from []domain.UserStatus, to domain.UserStatus) (*domain.User, error) {
	change := domain.StatusChange{UserID: userID, From: from, To: to, At: s.now()}
	if action == domain.ActionUserApprove {
		change.ApprovedBy = actorID
	}
	user, err := s.users.UpdateStatus(ctx, change)
	if err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actorID, action, userID, nil)
	return user, nil
}

// Approve activates a pending account and records the approver.
func (s *UserService) Approve(ctx context.Context, actorID, userID string) (*domain.User, error) {
	return s.changeStatus(ctx, actorID, userID, domain.ActionUserApprove,
		[]domain.UserStatus{domain.UserPending}, domain.UserActive)
}

// Block disables a pending or active account.
func (s *UserService) Block(ctx context.Context, actorID, userID string) (*domain.User, error) {
	if actorID == userID {
		return nil, domain.Invalid("you cannot block your own account")
	}
	return s.changeStatus(ctx, actorID, userID, domain.ActionUserBlock,
		[]domain.UserStatus{domain.UserPending, domain.UserActive}, domain.UserBlocked)
}

// Unblock reactivates a blocked account.
func (s *UserService) Unblock(ctx context.Context, actorID, userID string) (*domain.User, error) {
	return s.changeStatus(ctx, actorID, userID, domain.ActionUserUnblock,
		[]domain.UserStatus{domain.UserBlocked}, domain.UserActive)
}

// UpdateRole moves a user to another role. Only a super admin may grant
// the Super Admin role.
func (s *UserService) UpdateRole(ctx context.Context, actor *domain.User, userID string, name domain.RoleName) (*domain.User, error) {
	if name == "" {
		return nil, domain.Invalid("role name is required")
	}
	if name == domain.RoleSuperAdmin {
		if err := s.authz.Evaluate(security.PrincipalOf(actor), security.AnyRole(domain.RoleSuperAdmin)); err != nil {
			return nil, err
		}
	}
	role, err := s.roles.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateRole(ctx, userID, role.ID)
	if err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actor.ID, domain.ActionUserRoleUpdate, userID, map[string]any{"role": string(name)})
	return user, nil
}

// UpdateProfile applies the caller's own profile edits.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.FullName != nil && strings.TrimSpace(*update.FullName) == "" {
		return nil, domain.Invalid("full name cannot be empty")
	}
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, userID, domain.ActionUserProfileUpdate, userID, nil)
	return user, nil
}
