package config

import (
	"fmt"
	"time"
)

const (
	defaultExpirationHours = 24
	minSecretLength        = 16
)

// JWTConfig holds configuration for JWT token validation and dev token issuance.
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	SecretFile      string `mapstructure:"secret_file"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
	// Issuer, when set, must match the iss claim of incoming tokens.
	Issuer string `mapstructure:"issuer"`
}

// Expiration returns the token lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("JWT secret must be at least %d characters, got: %d", minSecretLength, len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("auth.expiration_hours must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
