package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 8080
	defaultEnv      = "development"
	defaultDSN      = "root:password@tcp(127.0.0.1:3306)/school_admin?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisURL = "redis://localhost:6379/0"

	defaultAccessTokenTTL  = 2 * time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultMaxSessions     = 5

	defaultLoginLimitMax   = 5
	defaultRefreshLimitMax = 10
	defaultGeneralLimitMax = 100
	defaultLimitWindow     = 15 * time.Minute

	defaultAuditBuffer    = 256
	defaultAuditRetention = 180
)

// Load reads, normalizes and validates the YAML config at path. A missing
// file is not an error: defaults plus environment overrides still apply.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("DSN")); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

func normalize(cfg *AppConfig) error {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		cfg.DSN = defaultDSN
	}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		cfg.RedisURL = defaultRedisURL
	}

	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)
	if cfg.Auth.JWTSecret == "" && !cfg.IsDev() {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	var err error
	cfg.Auth.AccessTokenTTL, err = parseDuration(cfg.Auth.AccessTokenTTLRaw, defaultAccessTokenTTL)
	if err != nil {
		return fmt.Errorf("auth.access_token_ttl: %w", err)
	}
	cfg.Auth.RefreshTokenTTL, err = parseDuration(cfg.Auth.RefreshTokenTTLRaw, defaultRefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("auth.refresh_token_ttl: %w", err)
	}
	if cfg.Auth.MaxSessionsPerUser <= 0 {
		cfg.Auth.MaxSessionsPerUser = defaultMaxSessions
	}

	if err := normalizeRule(&cfg.RateLimit.Login, defaultLoginLimitMax); err != nil {
		return fmt.Errorf("rate_limit.login: %w", err)
	}
	if err := normalizeRule(&cfg.RateLimit.Refresh, defaultRefreshLimitMax); err != nil {
		return fmt.Errorf("rate_limit.refresh: %w", err)
	}
	if err := normalizeRule(&cfg.RateLimit.General, defaultGeneralLimitMax); err != nil {
		return fmt.Errorf("rate_limit.general: %w", err)
	}

	if cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = defaultAuditBuffer
	}
	if cfg.Audit.RetentionDays <= 0 {
		cfg.Audit.RetentionDays = defaultAuditRetention
	}
	return nil
}

func normalizeRule(rule *RateLimitRule, defaultMax int) error {
	if rule.Max <= 0 {
		rule.Max = defaultMax
	}
	var err error
	rule.Window, err = parseDuration(rule.WindowRaw, defaultLimitWindow)
	return err
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", raw)
	}
	return d, nil
}
