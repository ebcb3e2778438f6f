package utils

import (
	"testing"

	"socialhub/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "test-secret-0123456789-0123456789-abcd"
	config.GlobalConfig.JWT.Expire = 1

	t.Run("Round trip keeps user id", func(t *testing.T) {
		token, expireAt, err := GenerateToken("user-1")
		require.NoError(t, err)
		require.NotNil(t, expireAt)

		claims, err := ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("Tampered token is rejected", func(t *testing.T) {
		token, _, err := GenerateToken("user-1")
		require.NoError(t, err)

		_, err = ParseToken(token + "x")
		assert.Error(t, err)
	})

	t.Run("Other secret is rejected", func(t *testing.T) {
		token, _, err := GenerateToken("user-1")
		require.NoError(t, err)

		config.GlobalConfig.JWT.Secret = "another-secret-0123456789-0123456789"
		defer func() { config.GlobalConfig.JWT.Secret = "test-secret-0123456789-0123456789-abcd" }()

		_, err = ParseToken(token)
		assert.Error(t, err)
	})
}
