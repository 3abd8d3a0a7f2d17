package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/featureflags"
	"github.com/aryan0dhankhar/wardenlink/internal/presence"
	"github.com/aryan0dhankhar/wardenlink/internal/repository/memory"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/internal/security/crypto"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type recordingPublisher struct {
	mu     sync.Mutex
	events []presence.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev presence.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Events() []presence.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]presence.Event(nil), p.events...)
}

type fixture struct {
	store     *memory.Store
	hasher    *auth.Hasher
	tokens    *auth.TokenManager
	audit     *audit.Logger
	roles     *RoleResolver
	published *recordingPublisher

	auth     *AuthService
	invites  *InviteService
	users    *UserService
	groups   *GroupService
	messages *MessageService
	polls    *PollService
	welfare  *WelfareService
	reports  *ReportService

	notifications *NotificationService
	posts         *PostService
	comments      *CommentService
	pages         *PageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", "wardenlink", time.Hour)
	auditLog := audit.NewLogger(store.Audit(), log)
	authz := security.NewAuthorizer(log)
	roles := NewRoleResolver(store.Roles(), time.Minute)
	cipher, err := crypto.NewMessageCipher(testKey)
	require.NoError(t, err)
	pub := &recordingPublisher{}

	require.NoError(t, NewSeeder(store.Roles(), store.Users(), hasher, log).SeedRoles(context.Background()))
	notifications := NewNotificationService(store.Notifications(), pub, log)

	return &fixture{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		audit:     auditLog,
		roles:     roles,
		published: pub,
		auth:      NewAuthService(store.Users(), hasher, tokens, auditLog, log),
		invites:   NewInviteService(store.Invites(), store.Users(), roles, hasher, auditLog, "https://app.example/", log),
		users: NewUserService(store.Users(), roles, hasher, authz, auditLog,
			featureflags.FromMap(map[string]bool{featureflags.PublicSignup: true}), log),
		groups:   NewGroupService(store.Groups(), store.Users(), log),
		messages: NewMessageService(store.Messages(), store.Users(), store.Groups(), cipher, pub, authz, log),
		polls:    NewPollService(store.Polls(), auditLog, log),
		welfare:  NewWelfareService(store.Welfare(), auditLog, log),
		reports:  NewReportService(store.Reports(), auditLog, log),

		notifications: notifications,
		posts:         NewPostService(store.Posts(), store.Users(), notifications, authz, auditLog, log),
		comments:      NewCommentService(store.Comments(), store.Posts(), notifications, log),
		pages:         NewPageService(store.Pages(), log),
	}
}

// user stores an account with the given role and status. Its password is
// "password-<name>" and its CNIC "cnic-<name>".
func (f *fixture) user(t *testing.T, name string, role domain.RoleName, status domain.UserStatus) *domain.User {
	t.Helper()
	ctx := context.Background()
	r, err := f.roles.ByName(ctx, role)
	require.NoError(t, err)
	pw, err := f.hasher.Hash("password-" + name)
	require.NoError(t, err)
	cnic, err := f.hasher.Hash("cnic-" + name)
	require.NoError(t, err)
	u := &domain.User{
		FullName:     strings.ToUpper(name[:1]) + name[1:],
		Email:        name + "@wardens.example",
		ServiceID:    "SID-" + name,
		PasswordHash: pw,
		CNICHash:     cnic,
		Role:         r,
		Status:       status,
		IsSuperAdmin: role == domain.RoleSuperAdmin,
	}
	require.NoError(t, f.store.Users().Create(ctx, u))
	got, err := f.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	entries, err := f.audit.Recent(context.Background(), 0)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}
