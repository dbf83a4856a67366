package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/ulot2/postflow/internal/transfer"
)

func signedToken(t *testing.T, secret, userID string, ttl time.Duration) string {
	t.Helper()
	claims := transfer.CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "postflow",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	token := signedToken(t, "secret", "42", time.Hour)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.UserID)
	require.Equal(t, "postflow", claims.Issuer)
}

func TestValidateTokenWrongKey(t *testing.T) {
	token := signedToken(t, "secret", "42", time.Hour)

	_, err := ValidateToken("other-secret", token)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token := signedToken(t, "secret", "42", -time.Minute)

	_, err := ValidateToken("secret", token)
	require.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("secret", "not.a.token")
	require.Error(t, err)
}
