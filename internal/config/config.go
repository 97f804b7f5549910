package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	TokenTTL      time.Duration
	LeadHookURL   string
	CVRAPIBaseURL string
	CVRUserAgent  string
	PositionsPath string
	RateLimitLead RateLimitConfig

	CVRCacheTTL      time.Duration
	CVRQuotaCacheTTL time.Duration
	CVRDebounce      time.Duration
	BridgeDelay      time.Duration
	SessionTTL       time.Duration
}

// Load reads configuration from environment variables and applies sane defaults.
// DATABASE_URL and REDIS_URL are optional: without them the lead archive and
// the CVR lookup cache are disabled, the rest of the service still runs.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:      parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		LeadHookURL:   os.Getenv("LEAD_HOOK_URL"),
		CVRAPIBaseURL: getEnv("CVR_API_BASE_URL", "https://cvrapi.dk"),
		CVRUserAgent:  getEnv("CVR_USER_AGENT", "Faelles Forsikring prisberegner (viggo@fforsikring.dk)"),
		PositionsPath: getEnv("POSITIONS_PATH", "data/positions.json"),

		CVRCacheTTL:      parseDuration(getEnv("CVR_CACHE_TTL", "24h"), 24*time.Hour),
		CVRQuotaCacheTTL: parseDuration(getEnv("CVR_QUOTA_CACHE_TTL", "10m"), 10*time.Minute),
		CVRDebounce:      parseDuration(getEnv("CVR_DEBOUNCE", "450ms"), 450*time.Millisecond),
		BridgeDelay:      parseDuration(getEnv("BRIDGE_DELAY", "800ms"), 800*time.Millisecond),
		SessionTTL:       parseDuration(getEnv("SESSION_TTL", "30m"), 30*time.Minute),
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_LEAD", "20/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LEAD value: %w", err)
	}
	cfg.RateLimitLead = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return fallback
	}
	return d
}
