package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int             `yaml:"port"`
	DSN            string          `yaml:"dsn"` // MySQL DSN
	RedisURL       string          `yaml:"redis_url"`
	Env            string          `yaml:"env"` // "development" | "production"
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Auth           AuthConfig      `yaml:"auth"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Audit          AuditConfig     `yaml:"audit"`
}

// AuthConfig controls token issuance and session admission.
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	AccessTokenTTL     time.Duration `yaml:"-"`
	RefreshTokenTTL    time.Duration `yaml:"-"`
	MaxSessionsPerUser int           `yaml:"max_sessions_per_user"`

	// Raw duration strings from YAML ("2h", "720h"), parsed during Load.
	AccessTokenTTLRaw  string `yaml:"access_token_ttl"`
	RefreshTokenTTLRaw string `yaml:"refresh_token_ttl"`
}

// RateLimitRule is one sliding-window limit: at most Max requests per Window.
type RateLimitRule struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"-"`

	WindowRaw string `yaml:"window"`
}

// RateLimitConfig carries the per-route-group limits.
type RateLimitConfig struct {
	Login   RateLimitRule `yaml:"login"`
	Refresh RateLimitRule `yaml:"refresh"`
	General RateLimitRule `yaml:"general"`
}

// AuditConfig controls the audit sink.
type AuditConfig struct {
	BufferSize    int `yaml:"buffer_size"`
	RetentionDays int `yaml:"retention_days"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }
