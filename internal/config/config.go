package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultDatabaseURL     = "counseling.db"
	defaultSessionTTL      = "24h"
	defaultShutdownTimeout = "10s"
	defaultCookieSecure    = "false"
	defaultCookieSameSite  = "Lax"
	defaultTimezone        = "Asia/Tokyo"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultCSRFKey         = "change-me-csrf-key-32-bytes-long"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	DatabaseURL     string
	JWTSecret       string
	SessionTTL      time.Duration
	ShutdownTimeout time.Duration
	CookieSecure    bool
	CookieSameSite  string
	CSRFKey         string
	// AdminIDs is the explicit administrator set. Empty means nobody is an administrator.
	AdminIDs         []string
	InputLocation    *time.Location
	DisplayLocation  *time.Location
	CORSOrigins      []string
	RabbitMQURL      string
	RefreshQueueName string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.CSRFKey = strings.TrimSpace(getEnv("CSRF_KEY", defaultCSRFKey))

	var err error
	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return nil, err
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))

	cfg.AdminIDs = parseList(os.Getenv("ADMIN_UIDS"))
	if legacy := strings.TrimSpace(os.Getenv("ADMIN_UID")); legacy != "" {
		cfg.AdminIDs = appendUnique(cfg.AdminIDs, legacy)
	}

	cfg.InputLocation, err = parseLocationEnv("INPUT_TIMEZONE", defaultTimezone)
	if err != nil {
		return nil, err
	}
	cfg.DisplayLocation, err = parseLocationEnv("DISPLAY_TIMEZONE", defaultTimezone)
	if err != nil {
		return nil, err
	}

	cfg.CORSOrigins = parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.RabbitMQURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))
	cfg.RefreshQueueName = strings.TrimSpace(os.Getenv("REFRESH_QUEUE_NAME"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s admins=%d input_tz=%s display_tz=%s cookie_secure=%t rabbitmq=%t",
		cfg.AppEnv, cfg.HTTPAddr, len(cfg.AdminIDs), cfg.InputLocation, cfg.DisplayLocation, cfg.CookieSecure, cfg.RabbitMQURL != "")

	return cfg, nil
}

// IsProd reports whether the app runs in a production-like environment.
func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if len(cfg.CSRFKey) < 32 {
		return fmt.Errorf("CSRF_KEY must be at least 32 bytes")
	}
	sameSite := strings.ToLower(cfg.CookieSameSite)
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.CSRFKey, defaultCSRFKey) {
			return fmt.Errorf("in prod/release CSRF_KEY must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseLocationEnv(name, fallback string) (*time.Location, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return loc, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		out = appendUnique(out, strings.TrimSpace(part))
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
