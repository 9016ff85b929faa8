package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/wardline/roster-api/internal/models"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret", Issuer: "wardline"})

	signed := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "nurse-1",
		Role:   models.RoleNurse,
		WardID: "ward-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wardline",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	require.Equal(t, "nurse-1", claims.UserID)
	require.Equal(t, models.RoleNurse, claims.Role)
	require.Equal(t, "ward-1", claims.WardID)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"})

	signed := signToken(t, "other-secret", &models.JWTClaims{UserID: "nurse-1"})
	_, err := svc.ValidateToken(signed)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"})

	signed := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "nurse-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err := svc.ValidateToken(signed)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret", Issuer: "wardline"})

	signed := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "nurse-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	_, err := svc.ValidateToken(signed)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
