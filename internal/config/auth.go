package config

import (
	"fmt"
	"time"
)

// TokenIssuer is the "iss" claim on every API token this service signs.
const TokenIssuer = "interview-coach"

// JWTConfig is what the API needs to sign and verify bearer tokens.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// JWT derives the token settings. It fails when no secret is configured, even
// if auth_required is off, since callers only ask when they mean to sign.
func (c *Config) JWT() (*JWTConfig, error) {
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required but not set (INTERVIEW_JWT_SECRET or JWT_SECRET)")
	}
	if c.JWTExpirationHours < 1 {
		return nil, fmt.Errorf("JWT expiration must be at least 1 hour, got: %d", c.JWTExpirationHours)
	}
	return &JWTConfig{
		Secret: c.JWTSecret,
		TTL:    time.Duration(c.JWTExpirationHours) * time.Hour,
		Issuer: TokenIssuer,
	}, nil
}
