package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
)

func TestLogin_Password(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "amina", domain.RoleWarden, domain.UserActive)

	res, err := f.auth.Login(context.Background(), LoginInput{Email: " AMINA@wardens.example ", Password: "password-amina"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, u.ID, res.User.ID)
	assert.NotNil(t, res.User.LastLoginAt)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, string(domain.RoleWarden), claims.Role)
}

func TestLogin_CNIC(t *testing.T) {
	f := newFixture(t)
	f.user(t, "bilal", domain.RoleWarden, domain.UserActive)

	res, err := f.auth.Login(context.Background(), LoginInput{ServiceID: "SID-bilal", CNIC: "cnic-bilal"})
	require.NoError(t, err)
	assert.Equal(t, "SID-bilal", res.User.ServiceID)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	f.user(t, "amina", domain.RoleWarden, domain.UserActive)
	f.user(t, "pending", domain.RoleWarden, domain.UserPending)
	ctx := context.Background()

	cases := []struct {
		name string
		in   LoginInput
		kind error
	}{
		{"no credentials", LoginInput{}, domain.ErrValidation},
		{"email without password", LoginInput{Email: "amina@wardens.example"}, domain.ErrValidation},
		{"unknown email", LoginInput{Email: "nobody@wardens.example", Password: "whatever1"}, domain.ErrUnauthenticated},
		{"wrong password", LoginInput{Email: "amina@wardens.example", Password: "wrong-password"}, domain.ErrUnauthenticated},
		{"wrong cnic", LoginInput{ServiceID: "SID-amina", CNIC: "nope"}, domain.ErrUnauthenticated},
		{"pending account", LoginInput{Email: "pending@wardens.example", Password: "password-pending"}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestLogin_PendingAccountWithWrongPasswordIsUnauthenticated(t *testing.T) {
	f := newFixture(t)
	f.user(t, "pending", domain.RoleWarden, domain.UserPending)

	_, err := f.auth.Login(context.Background(), LoginInput{Email: "pending@wardens.example", Password: "bad-password"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.user(t, "amina", domain.RoleWarden, domain.UserActive)
	blocked := f.user(t, "blocked", domain.RoleWarden, domain.UserBlocked)

	token, _, err := f.tokens.Issue(active)
	require.NoError(t, err)
	got, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	_, err = f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.auth.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	token, _, err = f.tokens.Issue(blocked)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	token, _, err = f.tokens.Issue(&domain.User{ID: "ghost"})
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "amina", domain.RoleWarden, domain.UserActive)

	old := auth.NewTokenManager("test-secret", "wardenlink", time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, _, err := old.Issue(u)
	require.NoError(t, err)

	_, err = f.auth.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, "token expired", domain.ErrorText(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "amina", domain.RoleWarden, domain.UserActive)

	err := f.auth.ChangePassword(ctx, u.ID, "wrong", "new-password-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = f.auth.ChangePassword(ctx, u.ID, "password-amina", "short")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.auth.ChangePassword(ctx, u.ID, "password-amina", "new-password-1"))
	_, err = f.auth.Login(ctx, LoginInput{Email: u.Email, Password: "new-password-1"})
	require.NoError(t, err)
	assert.Contains(t, f.auditActions(t), domain.ActionUserPassword)
}

func TestChangePassword_CNICWhenNoPasswordSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.users.Create(ctx, "admin", CreateUserInput{
		FullName: "Fresh", Email: "fresh@wardens.example", ServiceID: "SID-fresh", CNIC: "35202-1234567-1",
	})
	require.NoError(t, err)

	require.NoError(t, f.auth.ChangePassword(ctx, created.ID, "35202-1234567-1", "first-password"))
}
