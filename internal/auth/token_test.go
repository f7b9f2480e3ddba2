package auth

import (
	"testing"
	"time"

	"nuesa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, cfg Config) *TokenService {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret-key-for-token-tests"
	}
	svc, err := NewTokenService(cfg)
	require.NoError(t, err)
	return svc
}

func testUser() *models.User {
	return &models.User{
		ID:      42,
		Email:   "student@example.com",
		IsAdmin: false,
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(Config{})
	assert.Error(t, err)
}

func TestAccessTokenRoundtrip(t *testing.T) {
	svc := newTestService(t, Config{AccessTTL: time.Hour})

	token, err := svc.IssueAccess(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
	assert.False(t, claims.IsRefresh)

	principal := claims.Principal()
	assert.Equal(t, uint(42), principal.UserID)
	assert.False(t, principal.IsAdmin)
}

func TestAccessTokenCarriesAdminFlag(t *testing.T) {
	svc := newTestService(t, Config{})

	user := testUser()
	user.IsAdmin = true

	token, err := svc.IssueAccess(user)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
}

func TestRefreshTokenRoundtrip(t *testing.T) {
	svc := newTestService(t, Config{RefreshTTL: 7 * 24 * time.Hour})

	token, err := svc.IssueRefresh(testUser())
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.True(t, claims.IsRefresh)
	// Refresh tokens carry no role claims.
	assert.False(t, claims.IsAdmin)
	assert.Empty(t, claims.Email)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := newTestService(t, Config{AccessTTL: -time.Minute})

	token, err := svc.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newTestService(t, Config{Secret: "secret-one-aaaaaaaaaaaaaaaaaaaa"})
	verifier := newTestService(t, Config{Secret: "secret-two-bbbbbbbbbbbbbbbbbbbb"})

	token, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService(t, Config{})

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := newTestService(t, Config{})

	token, err := svc.IssueAccess(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-3] + "xyz"
	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
