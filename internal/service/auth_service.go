package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
)

// AuthService handles authentication operations
type AuthService struct {
	users  domain.UserRepository
	hasher *auth.Hasher
	tokens *auth.TokenManager
	audit  *audit.Logger
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenManager,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  auditLog,
		logger: logger,
		now:    utcNow,
	}
}

// LoginInput accepts either Email+Password or ServiceID+CNIC.
type LoginInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	ServiceID string `json:"serviceId"`
	CNIC      string `json:"cnic"`
}

// LoginResult represents login response
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// Login authenticates a user and returns a signed token. Credential
// mismatches are 401; a matched account that is not active is 403.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	var (
		user   *domain.User
		method string
		err    error
	)
	switch {
	case strings.TrimSpace(in.Email) != "":
		method = "password"
		user, err = s.loginWithPassword(ctx, domain.NormalizeEmail(in.Email), in.Password)
	case strings.TrimSpace(in.ServiceID) != "" && in.CNIC != "":
		method = "cnic"
		user, err = s.loginWithCNIC(ctx, strings.TrimSpace(in.ServiceID), in.CNIC)
	default:
		return nil, domain.Invalid("email and password, or service id and CNIC, are required")
	}
	if err != nil {
		metrics.ObserveLogin(method, "rejected")
		return nil, err
	}

	if user.Status != domain.UserActive {
		s.logger.Info("login refused for inactive account",
			slog.String("user_id", user.ID),
			slog.String("status", string(user.Status)),
		)
		metrics.ObserveLogin(method, "inactive")
		return nil, domain.Forbidden("account pending approval")
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, err
	}

	at := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, at); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("method", method),
	)
	metrics.ObserveLogin(method, "success")

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) loginWithPassword(ctx context.Context, email, password string) (*domain.User, error) {
	if password == "" {
		return nil, domain.Invalid("password is required for email login")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Info("login attempt with unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, domain.Invalid("password not set, use service id and CNIC")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) loginWithCNIC(ctx context.Context, serviceID, cnic string) (*domain.User, error) {
	user, err := s.users.GetByServiceID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(cnic, user.CNICHash) {
		s.logger.Info("login failed with wrong CNIC", slog.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Unauthenticated("missing token")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domain.Unauthenticated("token expired")
		}
		return nil, domain.Unauthenticated("invalid token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Unauthenticated("user not found")
		}
		return nil, err
	}
	if user.Status != domain.UserActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

// Me returns the caller's current record.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ChangePassword sets a new password. The current secret is the existing
// password, or the CNIC for accounts that never had one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	digest := user.PasswordHash
	if digest == "" {
		digest = user.CNICHash
	}
	if !s.hasher.Verify(current, digest) {
		return domain.Invalid("current password is incorrect")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.audit.LogAction(ctx, userID, domain.ActionUserPassword, userID, nil)
	s.logger.Info("user changed password", slog.String("user_id", userID))
	return nil
}
