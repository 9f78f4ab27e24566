package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	defaultHoneypotField      = "website"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
// A zero value disables the limiter.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port     string
	LogLevel string

	WebhookURL      string
	WebhookAudience string
	OutboundTimeout time.Duration

	RecaptchaSecret    string
	RecaptchaVerifyURL string
	RecaptchaMinScore  float64

	MinSubmitDelay  time.Duration
	HoneypotField   string
	RateLimitWindow time.Duration
	MaxBodyBytes    int64
	RateLimitLead   RateLimitConfig
	AllowedOrigins  []string

	DatabaseURL       string
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		WebhookURL:         strings.TrimSpace(os.Getenv("LEAD_WEBHOOK_URL")),
		WebhookAudience:    strings.TrimSpace(os.Getenv("LEAD_WEBHOOK_AUDIENCE")),
		RecaptchaSecret:    strings.TrimSpace(os.Getenv("RECAPTCHA_SECRET")),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", defaultRecaptchaVerifyURL),
		HoneypotField:      getEnv("HONEYPOT_FIELD", defaultHoneypotField),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminEmail:         strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPasswordHash:  strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),
	}

	durations := []struct {
		key      string
		fallback string
		target   *time.Duration
	}{
		{"OUTBOUND_TIMEOUT", "8s", &cfg.OutboundTimeout},
		{"LEAD_RATE_LIMIT_WINDOW", "15s", &cfg.RateLimitWindow},
		{"JWT_TTL", "12h", &cfg.TokenTTL},
	}
	for _, item := range durations {
		d, err := parseDuration(getEnv(item.key, item.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", item.key, err)
		}
		*item.target = d
	}

	minDelay, err := parseMillis(getEnv("MIN_SUBMIT_DELAY_MS", "2500"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_SUBMIT_DELAY_MS value: %w", err)
	}
	cfg.MinSubmitDelay = minDelay

	maxBody, err := strconv.ParseInt(getEnv("LEAD_MAX_BODY_BYTES", "25000"), 10, 64)
	if err != nil || maxBody <= 0 {
		return nil, fmt.Errorf("invalid LEAD_MAX_BODY_BYTES value: %q", os.Getenv("LEAD_MAX_BODY_BYTES"))
	}
	cfg.MaxBodyBytes = maxBody

	score, err := strconv.ParseFloat(getEnv("RECAPTCHA_MIN_SCORE", "0.5"), 64)
	if err != nil || score < 0 || score > 1 {
		return nil, fmt.Errorf("invalid RECAPTCHA_MIN_SCORE value: %q", os.Getenv("RECAPTCHA_MIN_SCORE"))
	}
	cfg.RecaptchaMinScore = score

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_LEAD", "60/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LEAD value: %w", err)
	}
	cfg.RateLimitLead = rl

	return cfg, nil
}

// JournalEnabled reports whether submissions should be recorded in Postgres.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

// AdminEnabled reports whether the admin API can authenticate anyone.
func (c *Config) AdminEnabled() bool {
	return c.JournalEnabled() && c.JWTSecret != "" && c.AdminEmail != "" && c.AdminPasswordHash != ""
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	if strings.EqualFold(strings.TrimSpace(value), "off") {
		return RateLimitConfig{}, nil
	}

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

func parseMillis(value string) (time.Duration, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("must not be negative: %d", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(input))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", input)
	}
	return d, nil
}
