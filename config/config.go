// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string `env:"APP_ENV,default=development"`
	HTTPAddr    string `env:"HTTP_ADDR,default=:9000"`

	// Empty selects the in-memory repositories
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`

	// Empty selects in-memory nonce and token stores with in-process events
	RedisURL string `env:"REDIS_URL"`

	SessionKeyFile     string        `env:"SESSION_KEY_FILE"`
	SignInDomain       string        `env:"SIWE_DOMAIN,default=dapptober.local"`
	NonceTTL           time.Duration `env:"NONCE_TTL,default=5m"`
	NonceSweepInterval time.Duration `env:"NONCE_SWEEP_INTERVAL,default=5m"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL,default=1h"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`
	CookieSecure       bool          `env:"COOKIE_SECURE,default=false"`

	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS,default=5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST,default=10"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	// Comma-separated IPs or CIDRs allowed to set X-Forwarded-For. Empty trusts nobody.
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// Load reads an optional .env file, then decodes the environment over the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with
func (c Config) Validate() error {
	switch {
	case c.NonceTTL <= 0:
		return fmt.Errorf("NONCE_TTL must be positive")
	case c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0:
		return fmt.Errorf("token TTLs must be positive")
	case c.AccessTokenTTL > c.RefreshTokenTTL:
		return fmt.Errorf("ACCESS_TOKEN_TTL must not exceed REFRESH_TOKEN_TTL")
	case c.AuthRateLimitRPS <= 0 || c.AuthRateLimitBurst <= 0:
		return fmt.Errorf("auth rate limit must be positive")
	}
	for _, proxy := range c.TrustedProxyList() {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: %q is neither an IP nor a CIDR", proxy)
		}
	}
	return nil
}

// IsDevelopment reports whether APP_ENV selects development mode
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas
func (c Config) AllowedOrigins() []string {
	origins := splitList(c.CORSAllowedOrigins)
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// TrustedProxyList splits TRUSTED_PROXIES on commas
func (c Config) TrustedProxyList() []string {
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
