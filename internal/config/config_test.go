package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:          "a-development-secret",
		AccessTokenTTLMin:  60,
		RefreshTokenTTLDay: 7,
		Port:               "8390",
		Env:                "development",
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTLMin = 0 }},
		{"negative refresh ttl", func(c *Config) { c.RefreshTokenTTLDay = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateProductionStrictness(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	cfg.DBPassword = "s0mething-strong"

	// Short secret rejected in production.
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "a-real-secret-that-is-long-enough-123"
	assert.NoError(t, cfg.Validate())

	// Default secret rejected in production.
	cfg.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, cfg.Validate())

	// Weak DB password rejected in production.
	cfg.JWTSecret = "a-real-secret-that-is-long-enough-123"
	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate())
}

func TestTokenTTLs(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
}
