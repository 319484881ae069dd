package services

import (
	"testing"
	"time"

	"github.com/questhaven/gamevault/internal/models"
	"github.com/questhaven/gamevault/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(expiry time.Duration) *TokenService {
	return NewTokenService(&config.JWTConfig{
		Secret: []byte("test-secret-key-min-32-bytes-long!!"),
		Expiry: expiry,
	})
}

func TestTokenIssue(t *testing.T) {
	svc := newTokenService(7 * 24 * time.Hour)

	t.Run("issues a verifiable token", func(t *testing.T) {
		token, expiresAt, err := svc.Issue("user-123", models.RoleAdmin)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, expiresAt.After(time.Now()))

		claims, err := svc.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("expiry tracks the configured lifetime", func(t *testing.T) {
		_, expiresAt, err := svc.Issue("user-123", models.RoleUser)
		require.NoError(t, err)

		remaining := time.Until(expiresAt)
		assert.Greater(t, remaining, 7*24*time.Hour-time.Minute)
		assert.LessOrEqual(t, remaining, 7*24*time.Hour)
	})
}

func TestTokenVerify(t *testing.T) {
	svc := newTokenService(7 * 24 * time.Hour)

	t.Run("rejects token signed with a different secret", func(t *testing.T) {
		other := NewTokenService(&config.JWTConfig{
			Secret: []byte("wrong-secret-key-different-value!!!"),
			Expiry: time.Hour,
		})
		token, _, err := other.Issue("user-123", models.RoleSuperAdmin)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid token")
	})

	t.Run("rejects expired token", func(t *testing.T) {
		short := newTokenService(1 * time.Millisecond)
		token, _, err := short.Issue("user-123", models.RoleAdmin)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = short.Verify(token)
		assert.Error(t, err)
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		malformed := []string{
			"",
			"not.a.jwt",
			"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9",
			"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid",
		}
		for _, token := range malformed {
			_, err := svc.Verify(token)
			assert.Error(t, err, "should reject token: %q", token)
		}
	})

	t.Run("verification is stateless", func(t *testing.T) {
		// Two services built from the same config must agree; there is no
		// shared revocation state behind Verify.
		token, _, err := svc.Issue("user-123", models.RoleAdmin)
		require.NoError(t, err)

		twin := newTokenService(7 * 24 * time.Hour)
		claims, err := twin.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
	})
}
