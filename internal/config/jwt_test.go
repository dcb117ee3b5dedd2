package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	t.Run("secret and explicit expiration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shared-with-session-service")
		t.Setenv("JWT_EXPIRATION_HOURS", "8")

		cfg, err := NewJWTConfig()
		require.NoError(t, err)
		assert.Equal(t, "shared-with-session-service", cfg.Secret)
		assert.Equal(t, 8, cfg.ExpirationHours)
	})

	t.Run("expiration defaults to 24 hours", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shared-with-session-service")
		t.Setenv("JWT_EXPIRATION_HOURS", "")

		cfg, err := NewJWTConfig()
		require.NoError(t, err)
		assert.Equal(t, 24, cfg.ExpirationHours)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := NewJWTConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("non-numeric expiration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shared-with-session-service")
		t.Setenv("JWT_EXPIRATION_HOURS", "soon")

		_, err := NewJWTConfig()
		assert.Error(t, err)
	})

	t.Run("expiration below one hour", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shared-with-session-service")
		t.Setenv("JWT_EXPIRATION_HOURS", "0")

		_, err := NewJWTConfig()
		assert.Error(t, err)
	})
}
