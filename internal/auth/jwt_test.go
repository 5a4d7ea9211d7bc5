package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingobox/lingobox/internal/auth"
	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/models"
)

const secret = "0123456789abcdef0123"

func newAuth(clk clock.Clock) *auth.JWTAuthenticator {
	return auth.NewJWTAuthenticator(secret, "lingobox", time.Hour, clk)
}

func TestIssueAndResolve(t *testing.T) {
	a := newAuth(clock.NewFixed(time.Now()))

	token, err := a.Issue("user-1", "")
	require.NoError(t, err)

	u, err := a.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "user-1", Role: models.RoleUser}, u)

	admin, err := a.Issue("boss", models.RoleAdmin)
	require.NoError(t, err)
	u, err = a.Resolve(admin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestResolve_Expired(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	a := newAuth(clk)
	token, err := a.Issue("user-1", "")
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = a.Resolve(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestResolve_RejectsForeignTokens(t *testing.T) {
	a := newAuth(clock.NewFixed(time.Now()))

	other := auth.NewJWTAuthenticator("another-secret-value", "lingobox", time.Hour, clock.Real{})
	token, err := other.Issue("user-1", "")
	require.NoError(t, err)
	_, err = a.Resolve(token)
	assert.Error(t, err)

	wrongIssuer := auth.NewJWTAuthenticator(secret, "someone-else", time.Hour, clock.Real{})
	token, err = wrongIssuer.Issue("user-1", "")
	require.NoError(t, err)
	_, err = a.Resolve(token)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x", Issuer: "lingobox"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Resolve(unsigned)
	assert.Error(t, err)

	_, err = a.Resolve("")
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", auth.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", auth.BearerToken("bearer   abc "))
	assert.Empty(t, auth.BearerToken("Basic abc"))
	assert.Empty(t, auth.BearerToken(""))
}
