package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/mock-interview/internal/config"
)

// Claims represents the request-token claims. The subject is the session ID.
type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenSource signs short-lived bearer tokens for requests to the interviewer service.
type TokenSource struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewTokenSource creates a token source with the given configuration.
func NewTokenSource(cfg *config.JWTConfig) *TokenSource {
	return &TokenSource{
		config: cfg,
		now:    time.Now,
	}
}

// Token generates a signed HS256 token for the given session ID.
func (s *TokenSource) Token(sessionID string) (string, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(s.config.ExpirationMinutes) * time.Minute)

	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses a token signed by this source and returns its claims.
func (s *TokenSource) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}
