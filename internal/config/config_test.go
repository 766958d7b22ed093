// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name:     "http default port",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 80}},
			expected: "http://localhost",
		},
		{
			name:     "http custom port",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 8080}},
			expected: "http://localhost:8080",
		},
		{
			name: "https default port",
			cfg: &Config{
				Server: ServerConfig{Host: "club.example.edu", Port: 443},
				TLS:    TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"},
			},
			expected: "https://club.example.edu",
		},
		{
			name: "https custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "club.example.edu", Port: 8443},
				TLS:    TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"},
			},
			expected: "https://club.example.edu:8443",
		},
		{
			name: "cert without key stays on http",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 8080},
				TLS:    TLSConfig{CertFile: "cert.pem"},
			},
			expected: "http://localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Run("development gets a fallback secret", func(t *testing.T) {
		cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 8080}}
		applyDefaults(cfg)

		assert.Equal(t, EnvDevelopment, cfg.Env)
		assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
		assert.Equal(t, "http://localhost:8080", cfg.Server.FrontendURL)
		assert.Positive(t, cfg.Auth.HashWorkers)
		assert.Equal(t, "token", cfg.Auth.CookieName)
	})

	t.Run("production keeps an empty secret", func(t *testing.T) {
		cfg := &Config{Env: EnvProduction, Server: ServerConfig{Host: "localhost", Port: 8080}}
		applyDefaults(cfg)

		assert.Empty(t, cfg.Auth.JWTSecret)
	})

	t.Run("frontend url loses trailing slash", func(t *testing.T) {
		cfg := &Config{Server: ServerConfig{FrontendURL: "https://club.example.edu/"}}
		applyDefaults(cfg)

		assert.Equal(t, "https://club.example.edu", cfg.Server.FrontendURL)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:  EnvProduction,
			Auth: AuthConfig{JWTSecret: "s3cret", JWTExpire: time.Hour},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("production without secret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
	})

	t.Run("non-positive expiry", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTExpire = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("smtp host without sender", func(t *testing.T) {
		cfg := valid()
		cfg.SMTP.Host = "smtp.example.edu"
		assert.Error(t, cfg.Validate())
	})
}

func TestFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range Flags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"env", "host", "port", "base-url", "frontend-url", "log-level", "log-format",
		"database-dsn", "jwt-secret", "jwt-expire", "cookie-secure", "hash-cost",
		"hash-workers", "strict-passwords", "smtp-host", "smtp-from", "tls-cert-file", "tls-key-file",
	} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func TestNewFromCLI(t *testing.T) {
	var cfg *Config
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg = NewFromCLI(cmd)
			return nil
		},
	}

	require.NoError(t, app.Run(context.Background(), []string{"test"}))
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.JWTExpire)
	assert.Equal(t, 10, cfg.Auth.HashCost)
	assert.False(t, cfg.Auth.StrictPasswords)
	assert.NotEmpty(t, cfg.Server.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	var cfg *Config
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg = NewFromCLI(cmd)
			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://api.example.edu",
		"--frontend-url", "https://club.example.edu",
		"--jwt-secret", "topsecret",
		"--jwt-expire", "1h",
		"--env", "production",
		"--database-dsn", "./data/test.db",
		"--strict-passwords",
	}
	require.NoError(t, app.Run(context.Background(), args))

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://api.example.edu", cfg.Server.BaseURL)
	assert.Equal(t, "https://club.example.edu", cfg.Server.FrontendURL)
	assert.Equal(t, "topsecret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.JWTExpire)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "./data/test.db", cfg.Database.DSN)
	assert.True(t, cfg.Auth.StrictPasswords)
}
