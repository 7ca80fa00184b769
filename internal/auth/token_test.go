package auth_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gba-rental/internal/auth"
	"gba-rental/internal/config"
)

func testIssuer(ttl time.Duration) *auth.TokenIssuer {
	return auth.NewTokenIssuer(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
	})
}

func TestIssueAndVerify(t *testing.T) {
	issuer := testIssuer(time.Hour)

	token, err := issuer.Issue("user-1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "admin", role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := testIssuer(time.Hour).Issue("user-1", "user")
	require.NoError(t, err)

	other := auth.NewTokenIssuer(config.AuthConfig{JWTSecret: "different-secret", TokenTTL: time.Hour})
	_, _, err = other.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := testIssuer(-time.Minute)

	token, err := issuer.Issue("user-1", "user")
	require.NoError(t, err)

	_, _, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestExtractTokenFromRequest(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)

	_, err := auth.ExtractTokenFromRequest(r)
	assert.ErrorIs(t, err, auth.ErrMissingAuthHeader)

	r.Header.Set("Authorization", "Token abc")
	_, err = auth.ExtractTokenFromRequest(r)
	assert.ErrorIs(t, err, auth.ErrInvalidAuthHeader)

	r.Header.Set("Authorization", "Bearer abc123")
	token, err := auth.ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}
