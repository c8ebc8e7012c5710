package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/papercraft/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil)
}

func TestAuthService_Password(t *testing.T) {
	s := newAuthService()
	hash, err := s.HashPassword("hunter22")
	require.NoError(t, err)

	assert.NoError(t, s.CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, s.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	s := newAuthService()
	signed, err := s.signToken("jti-1", 42, "a@school.in", time.Now())
	require.NoError(t, err)

	claims, err := s.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.AuthorID)
	assert.Equal(t, "a@school.in", claims.Email)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, TokenTypeAuthor, claims.TokenType)
}

func TestAuthService_RejectsTokens(t *testing.T) {
	s := newAuthService()

	expired, err := s.signToken("jti", 1, "", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = s.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil)
	forged, err := other.signToken("jti", 1, "", time.Now())
	require.NoError(t, err)
	_, err = s.ValidateToken(forged)
	assert.Error(t, err)

	wrongType := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		TokenType:        "student",
		AuthorID:         1,
	})
	str, err := wrongType.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.ValidateToken(str)
	assert.Error(t, err)

	_, err = s.ValidateToken("not-a-token")
	assert.Error(t, err)
}
