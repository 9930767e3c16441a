package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	manager := NewJWTManager("secret")
	token := signToken(t, "secret", Claims{
		Actor:    "ops@fleet",
		TenantID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@fleet", claims.Actor)
	assert.Equal(t, int64(7), claims.TenantID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret")
	token := signToken(t, "other-secret", Claims{Actor: "ops"})

	_, err := manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	manager := NewJWTManager("secret")
	token := signToken(t, "secret", Claims{
		Actor: "ops",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMissingActor(t *testing.T) {
	manager := NewJWTManager("secret")
	token := signToken(t, "secret", Claims{TenantID: 7})

	_, err := manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := NewJWTManager("secret").ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
