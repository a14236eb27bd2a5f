// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first if present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds every runtime setting of the server.
type Config struct {
	// Server
	Port            int
	WebDir          string        // directory holding index.html, teacher.html, staff.html
	PublicBaseURL   string        // used for staff URLs; derived per request when empty
	ShutdownTimeout time.Duration // grace period for in-flight requests

	// Storage
	Backend     string // "sqlite" or "redis"
	DBPath      string
	RedisURL    string
	RedisPrefix string

	// Behaviour
	Timezone          string // IANA name used to decide "today" for theme windows
	LogLevel          string
	RequireStaffToken bool // gate /api/staff/* behind the current access token

	location *time.Location
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		WebDir:          getEnv("WEB_DIR", "web"),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Backend:     strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		DBPath:      getEnv("DB_PATH", "data/otayori.db"),
		RedisURL:    getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		RedisPrefix: getEnv("REDIS_PREFIX", "otayori"),

		Timezone:          getEnv("TIMEZONE", "Asia/Tokyo"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RequireStaffToken: getEnvAsBool("REQUIRE_STAFF_TOKEN", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings and resolves the timezone.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Backend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}

	if c.Backend == BackendSQLite && c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required for the sqlite backend")
	}
	if c.Backend == BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the redis backend")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	return nil
}

// Location returns the resolved timezone. Only valid after Validate.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
