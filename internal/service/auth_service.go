package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/papercraft/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// TokenType distinguishes author tokens from anything else signed with the
// same secret.
type TokenType string

const TokenTypeAuthor TokenType = "author"

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	AuthorID  int       `json:"author_id"`
	Email     string    `json:"email,omitempty"`
}

// AuthService handles authentication, JWT, and session management.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateAuthorToken creates a JWT for an author and registers it as the
// author's active session. A newer login replaces the previous session.
func (s *AuthService) GenerateAuthorToken(ctx context.Context, authorID int, email string) (string, error) {
	jti := uuid.New().String()
	signed, err := s.signToken(jti, authorID, email, time.Now())
	if err != nil {
		return "", err
	}

	sessionKey := config.CacheKey.AuthorSessionKey(authorID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

func (s *AuthService) signToken(jti string, authorID int, email string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(authorID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeAuthor,
		AuthorID:  authorID,
		Email:     email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenType != TokenTypeAuthor {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}

// ValidateAuthorSession checks that the token's JTI matches the active session in Redis.
func (s *AuthService) ValidateAuthorSession(ctx context.Context, authorID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.AuthorSessionKey(authorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout removes the author's active session.
func (s *AuthService) Logout(ctx context.Context, authorID int) error {
	return s.rdb.Del(ctx, config.CacheKey.AuthorSessionKey(authorID)).Err()
}
