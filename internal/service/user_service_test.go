package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/featureflags"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
)

func TestUserLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", domain.RoleAdmin, domain.UserActive)

	u, err := f.users.Create(ctx, admin.ID, CreateUserInput{
		FullName: "Zara", Email: "zara@wardens.example", ServiceID: "SID-zara", CNIC: "35202-1111111-2",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UserPending, u.Status)
	assert.Equal(t, domain.RoleWarden, u.RoleName())
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, "1112", u.CNICLast4)

	pending, err := f.users.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, u.ID, pending[0].ID)

	approved, err := f.users.Approve(ctx, admin.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserActive, approved.Status)
	assert.Equal(t, admin.ID, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	_, err = f.users.Approve(ctx, admin.ID, u.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	blocked, err := f.users.Block(ctx, admin.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserBlocked, blocked.Status)

	unblocked, err := f.users.Unblock(ctx, admin.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserActive, unblocked.Status)

	actions := f.auditActions(t)
	for _, a := range []string{domain.ActionUserCreate, domain.ActionUserApprove, domain.ActionUserBlock, domain.ActionUserUnblock} {
		assert.Contains(t, actions, a)
	}
}

func TestUserCreate_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Create(context.Background(), "a", CreateUserInput{Email: "a@b.c", ServiceID: "S"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "CNIC is required", domain.ErrorText(err))
}

func TestBlockSelf(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin, domain.UserActive)
	_, err := f.users.Block(context.Background(), admin.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", domain.RoleAdmin, domain.UserActive)
	root := f.user(t, "root", domain.RoleSuperAdmin, domain.UserActive)
	w := f.user(t, "warden", domain.RoleWarden, domain.UserActive)

	got, err := f.users.UpdateRole(ctx, admin, w.ID, domain.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, got.RoleName())

	_, err = f.users.UpdateRole(ctx, admin, w.ID, domain.RoleSuperAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err = f.users.UpdateRole(ctx, root, w.ID, domain.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, got.RoleName())

	_, err = f.users.UpdateRole(ctx, root, w.ID, "Captain")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "amina", domain.RoleWarden, domain.UserActive)

	city := "Karachi"
	got, err := f.users.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Karachi", got.City)
	assert.Equal(t, u.FullName, got.FullName)

	blank := "  "
	_, err = f.users.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{FullName: &blank})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRequestAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := AccessRequestInput{
		FullName: "Hamza", Email: "hamza@wardens.example", ServiceID: "SID-hamza",
		CNIC: "35202-2222222-3", Password: "hamza-pass",
	}

	u, err := f.users.RequestAccess(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.UserPending, u.Status)
	assert.Equal(t, domain.RoleWarden, u.RoleName())

	_, err = f.users.RequestAccess(ctx, in)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestRequestAccess_Disabled(t *testing.T) {
	f := newFixture(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewUserService(f.store.Users(), f.roles, f.hasher, security.NewAuthorizer(log), f.audit,
		featureflags.FromMap(nil), log)

	_, err := svc.RequestAccess(context.Background(), AccessRequestInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
