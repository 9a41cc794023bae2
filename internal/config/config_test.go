package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxSessionsPerUser)
	assert.Equal(t, 5, cfg.RateLimit.Login.Max)
	assert.Equal(t, 10, cfg.RateLimit.Refresh.Max)
	assert.Equal(t, 100, cfg.RateLimit.General.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.Equal(t, 180, cfg.Audit.RetentionDays)
}

func TestLoadParsesYAML(t *testing.T) {
	path := writeConfig(t, `
port: 9000
env: development
auth:
  jwt_secret: sekrit
  access_token_ttl: 30m
  refresh_token_ttl: 168h
  max_sessions_per_user: 3
rate_limit:
  login:
    max: 7
    window: 5m
audit:
  retention_days: 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "sekrit", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 3, cfg.Auth.MaxSessionsPerUser)
	assert.Equal(t, 7, cfg.RateLimit.Login.Max)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Login.Window)
	// unset groups keep defaults
	assert.Equal(t, 10, cfg.RateLimit.Refresh.Max)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")
	t.Setenv("PORT", "9999")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestProductionRequiresSecret(t *testing.T) {
	path := writeConfig(t, "env: production\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestBadDurationRejected(t *testing.T) {
	path := writeConfig(t, `
auth:
  access_token_ttl: banana
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestNegativeDurationRejected(t *testing.T) {
	path := writeConfig(t, `
rate_limit:
  general:
    window: -5m
`)
	_, err := Load(path)
	require.Error(t, err)
}
