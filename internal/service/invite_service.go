package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
)

const (
	// DefaultInviteTTLDays applies when the creator gives no expiry.
	DefaultInviteTTLDays = 7
	inviteTokenBytes     = 24
)

// InviteService issues and redeems single-use registration invites
type InviteService struct {
	invites   domain.InviteRepository
	users     domain.UserRepository
	roles     *RoleResolver
	hasher    *auth.Hasher
	audit     *audit.Logger
	clientURL string
	logger    *slog.Logger
	now       func() time.Time
	random    io.Reader
}

func NewInviteService(
	invites domain.InviteRepository,
	users domain.UserRepository,
	roles *RoleResolver,
	hasher *auth.Hasher,
	auditLog *audit.Logger,
	clientURL string,
	logger *slog.Logger,
) *InviteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InviteService{
		invites:   invites,
		users:     users,
		roles:     roles,
		hasher:    hasher,
		audit:     auditLog,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
		now:       utcNow,
		random:    rand.Reader,
	}
}

// CreateInviteInput is the body of POST /api/invites
type CreateInviteInput struct {
	Email         string          `json:"email"`
	ServiceID     string          `json:"serviceId"`
	RoleName      domain.RoleName `json:"roleName"`
	ExpiresInDays *int            `json:"expiresInDays"`
}

// InviteResult carries the stored invite and the link to share.
type InviteResult struct {
	Invite *domain.Invite `json:"invite"`
	Link   string         `json:"link"`
}

// InviteView is what an anonymous holder of the token may see.
type InviteView struct {
	Email     string          `json:"email"`
	ServiceID string          `json:"serviceId"`
	Role      domain.RoleName `json:"role"`
}

// RegisterInput is the body of POST /api/invites/{token}/register
type RegisterInput struct {
	FullName string `json:"fullName"`
	CNIC     string `json:"cnic"`
	Password string `json:"password"`
	Station  string `json:"station"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
}

func (in RegisterInput) validate() error {
	if err := missing(field("full name", in.FullName), field("CNIC", in.CNIC), field("password", in.Password)); err != nil {
		return err
	}
	return validatePassword(in.Password)
}

// inviteTTL applies the default and clamps to at least one day.
func inviteTTL(days *int) time.Duration {
	d := DefaultInviteTTLDays
	if days != nil {
		d = *days
	}
	if d < 1 {
		d = 1
	}
	return time.Duration(d) * 24 * time.Hour
}

func (s *InviteService) newToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create issues an invite for an email and service id that no account uses yet.
func (s *InviteService) Create(ctx context.Context, actorID string, in CreateInviteInput) (*InviteResult, error) {
	email := domain.NormalizeEmail(in.Email)
	serviceID := strings.TrimSpace(in.ServiceID)
	if email == "" || serviceID == "" {
		return nil, domain.Invalid("email and service id are required")
	}

	exists, err := s.users.ExistsByEmailOrServiceID(ctx, email, serviceID)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.ObserveInvite("create", "conflict")
		return nil, domain.ErrUserExists
	}

	role, err := s.roles.ByName(ctx, in.RoleName)
	if err != nil {
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &domain.Invite{
		Token:     token,
		Email:     email,
		ServiceID: serviceID,
		Role:      role,
		CreatedBy: actorID,
		ExpiresAt: now.Add(inviteTTL(in.ExpiresInDays)),
		CreatedAt: now,
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		metrics.ObserveInvite("create", "error")
		return nil, err
	}

	s.audit.LogAction(ctx, actorID, domain.ActionInviteCreate, inv.ID, map[string]any{
		"role":      string(role.Name),
		"expiresAt": inv.ExpiresAt,
	})
	metrics.ObserveInvite("create", "success")

	return &InviteResult{Invite: inv, Link: s.clientURL + "/invite/" + token}, nil
}

// Get returns the sanitized view of a usable invite.
func (s *InviteService) Get(ctx context.Context, token string) (*InviteView, error) {
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := inv.Check(s.now()); err != nil {
		return nil, err
	}
	return &InviteView{Email: inv.Email, ServiceID: inv.ServiceID, Role: inv.Role.Name}, nil
}

// Redeem creates a pending account from the invite. Only one concurrent
// redemption of a token succeeds; the others fail with ErrInviteUsed.
func (s *InviteService) Redeem(ctx context.Context, token string, in RegisterInput) (user *domain.User, err error) {
	ctx, span := tracing.Start(ctx, "invite.redeem")
	defer func() { tracing.End(span, err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}

	// Fail fast before paying for two bcrypt hashes. The claim below
	// re-checks atomically.
	if _, err := s.Get(ctx, token); err != nil {
		metrics.ObserveInvite("redeem", "rejected")
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

	user = &domain.User{
		FullName:     strings.TrimSpace(in.FullName),
		CNICHash:     cnicHash,
		CNICLast4:    domain.CNICLast4(in.CNIC),
		PasswordHash: passwordHash,
		Status:       domain.UserPending,
		Station:      in.Station,
		City:         in.City,
		Phone:        in.Phone,
	}
	inv, err := s.invites.Redeem(ctx, token, user, s.now())
	if err != nil {
		metrics.ObserveInvite("redeem", "rejected")
		return nil, err
	}
	span.SetAttributes(attribute.String("invite.id", inv.ID), attribute.String("user.id", user.ID))

	s.audit.LogAction(ctx, "", domain.ActionInviteUsed, inv.ID, map[string]any{"userId": user.ID})
	s.logger.Info("invite redeemed",
		slog.String("invite_id", inv.ID),
		slog.String("user_id", user.ID),
	)
	metrics.ObserveInvite("redeem", "success")
	return user, nil
}
