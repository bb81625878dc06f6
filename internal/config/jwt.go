// Package config provides request-token configuration functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables for request tokens.
const (
	EnvJWTSecret            = "INTERVIEW_JWT_SECRET"
	EnvJWTExpirationMinutes = "INTERVIEW_JWT_EXPIRATION_MINUTES"
)

// JWTConfig holds configuration for signing tokens sent to the interviewer service.
type JWTConfig struct {
	Secret            string
	ExpirationMinutes int
}

// JWTEnabled reports whether a signing secret is present in the environment.
func JWTEnabled() bool {
	return os.Getenv(EnvJWTSecret) != ""
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads INTERVIEW_JWT_SECRET (required) and INTERVIEW_JWT_EXPIRATION_MINUTES (default: 15).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv(EnvJWTSecret)
	if secret == "" {
		return nil, fmt.Errorf("%s is required but not set", EnvJWTSecret)
	}

	expirationStr := os.Getenv(EnvJWTExpirationMinutes)
	if expirationStr == "" {
		expirationStr = "15" // default
	}

	expirationMinutes, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %v", EnvJWTExpirationMinutes, err)
	}

	config := &JWTConfig{
		Secret:            secret,
		ExpirationMinutes: expirationMinutes,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("%s cannot be empty", EnvJWTSecret)
	}
	if c.ExpirationMinutes < 1 {
		return fmt.Errorf("%s must be at least 1 minute, got: %d", EnvJWTExpirationMinutes, c.ExpirationMinutes)
	}
	return nil
}
