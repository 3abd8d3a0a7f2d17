package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: "u-1", Role: &domain.Role{ID: "r-1", Name: domain.RoleWarden}}
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", "", 0).WithClock(func() time.Time { return now })

	token, expiresAt, err := tm.Issue(testUser())
	require.NoError(t, err)
	assert.Equal(t, now.Add(12*time.Hour), expiresAt)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Warden", claims.Role)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := now
	tm := NewTokenManager("secret", "", time.Hour).WithClock(func() time.Time { return clock })

	token, _, err := tm.Issue(testUser())
	require.NoError(t, err)

	clock = now.Add(time.Hour + time.Second)
	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("one", "", 0)
	verifier := NewTokenManager("two", "", 0)

	token, _, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.False(t, errors.Is(err, ErrTokenExpired))
}

func TestVerifyRejectsGarbageAndNone(t *testing.T) {
	tm := NewTokenManager("secret", "", 0)

	_, err := tm.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssueRequiresUserID(t *testing.T) {
	_, _, err := NewTokenManager("secret", "", 0).Issue(&domain.User{})
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		_, err := ExtractToken(h)
		assert.Error(t, err, h)
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))
	assert.True(t, h.Verify("correct horse", digest))
	assert.False(t, h.Verify("wrong horse", digest))
	assert.False(t, h.Verify("correct horse", ""))
	assert.False(t, h.Verify("correct horse", "not-a-bcrypt-digest"))

	again, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again)
}

func TestHasherDefaultCost(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).cost)
	assert.Equal(t, 12, DefaultCost)
}
