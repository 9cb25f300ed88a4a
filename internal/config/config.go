package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr   = ":8080"
	defaultTokenTTL   = 15 * time.Minute
	defaultGuardTTL   = 30 * time.Second
	defaultRateBurst  = 20
	defaultRatePerSec = 10
)

// Config carries process-wide settings, loaded once at startup and immutable
// for the process lifetime.
type Config struct {
	HTTPAddr   string
	PGDSN      string
	AuthSecret string
	TokenTTL   time.Duration
	Issuer     string

	// Bounded staleness window for the role→permission cache.
	GuardCacheTTL time.Duration

	RateBurst  int
	RatePerSec int
}

// Load reads configuration from the environment. A local .env file is applied
// first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      envOr("WARDEN_HTTP_ADDR", defaultHTTPAddr),
		PGDSN:         strings.TrimSpace(os.Getenv("WARDEN_PG_DSN")),
		AuthSecret:    strings.TrimSpace(os.Getenv("WARDEN_AUTH_SECRET")),
		Issuer:        envOr("WARDEN_ISSUER", "warden"),
		TokenTTL:      defaultTokenTTL,
		GuardCacheTTL: defaultGuardTTL,
		RateBurst:     defaultRateBurst,
		RatePerSec:    defaultRatePerSec,
	}

	if cfg.AuthSecret == "" {
		return Config{}, errors.New("WARDEN_AUTH_SECRET is required")
	}

	if raw := os.Getenv("WARDEN_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, errors.New("WARDEN_TOKEN_TTL must be a positive duration")
		}
		cfg.TokenTTL = ttl
	}
	if raw := os.Getenv("WARDEN_GUARD_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Config{}, errors.New("WARDEN_GUARD_CACHE_TTL must be a positive duration")
		}
		cfg.GuardCacheTTL = ttl
	}
	if raw := os.Getenv("WARDEN_RATE_BURST"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Config{}, errors.New("WARDEN_RATE_BURST must be a positive integer")
		}
		cfg.RateBurst = n
	}
	if raw := os.Getenv("WARDEN_RATE_PER_SEC"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Config{}, errors.New("WARDEN_RATE_PER_SEC must be a positive integer")
		}
		cfg.RatePerSec = n
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
