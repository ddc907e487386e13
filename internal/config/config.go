// Package config loads server settings from an optional YAML file and the environment.
// Environment variables always win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWKSURL     string        `yaml:"jwks_url"`
	Issuer      string        `yaml:"issuer"`
	Audience    string        `yaml:"audience"`
	JWKSRefresh time.Duration `yaml:"jwks_refresh"`
}

type NATSConfig struct {
	URL string `yaml:"url"` // empty runs a process-local hub only
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type AppConfig struct {
	HTTP         HTTPConfig      `yaml:"http"`
	Database     DatabaseConfig  `yaml:"database"`
	Auth         AuthConfig      `yaml:"auth"`
	NATS         NATSConfig      `yaml:"nats"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	LogLevel     string          `yaml:"log_level"`
	VoteCacheTTL time.Duration   `yaml:"vote_cache_ttl"`
}

func defaults() AppConfig {
	return AppConfig{
		HTTP:         HTTPConfig{Addr: ":8081", CORSOrigins: []string{"*"}},
		Auth:         AuthConfig{JWKSRefresh: time.Hour},
		RateLimit:    RateLimitConfig{Requests: 100, Window: time.Minute},
		LogLevel:     "info",
		VoteCacheTTL: 5 * time.Minute,
	}
}

// Load reads AGORA_CONFIG (if set) and then the environment.
func Load() (AppConfig, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an injectable environment lookup.
func LoadFrom(getenv func(string) string) (AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(getenv("AGORA_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("DATABASE_URL", &cfg.Database.URL)
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	if port := strings.TrimSpace(getenv("APPVIEW_PORT")); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	str("NATS_URL", &cfg.NATS.URL)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("JWKS_URL", &cfg.Auth.JWKSURL)
	str("JWT_ISSUER", &cfg.Auth.Issuer)
	str("JWT_AUDIENCE", &cfg.Auth.Audience)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	if v := strings.TrimSpace(getenv("RATE_LIMIT_REQUESTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err)
		}
		cfg.RateLimit.Requests = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"RATE_LIMIT_WINDOW", &cfg.RateLimit.Window},
		{"VOTE_CACHE_TTL", &cfg.VoteCacheTTL},
		{"JWKS_REFRESH", &cfg.Auth.JWKSRefresh},
	}
	for _, d := range durations {
		v := strings.TrimSpace(getenv(d.key))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c AppConfig) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return errors.New("one of JWT_SECRET or JWKS_URL is required")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit requests and window must be positive")
	}
	if c.VoteCacheTTL < 0 {
		return errors.New("VOTE_CACHE_TTL must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
