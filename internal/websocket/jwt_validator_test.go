package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	assert.NoError(t, claims.Validate(context.Background()))
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	v, err := NewAuth0JWTValidator("test.auth0.com", "https://api.tally.app")
	require.NoError(t, err)
	assert.NotNil(t, v.validator)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	v, err := NewAuth0JWTValidator("test.auth0.com", "https://api.tally.app")
	require.NoError(t, err)

	owner, err := v.ValidateToken(context.Background(), "invalid-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.Empty(t, owner)
}

func TestOwnerFromClaims(t *testing.T) {
	t.Run("prefers email claim", func(t *testing.T) {
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|123"},
			CustomClaims:     &CustomClaims{Email: " alice@example.com "},
		}
		owner, err := ownerFromClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", owner)
	})

	t.Run("falls back to subject", func(t *testing.T) {
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|123"},
			CustomClaims:     &CustomClaims{},
		}
		owner, err := ownerFromClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, "auth0|123", owner)
	})

	t.Run("rejects empty identity", func(t *testing.T) {
		_, err := ownerFromClaims(&validator.ValidatedClaims{})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
