package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
)

type Config struct {
	Database DatabaseConfig
	Match    MatchConfig
	Web      WebConfig
	Admin    AdminConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Driver       string // postgres, sqlite or mysql (default postgres)
	URL          string // driver DSN
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MatchConfig struct {
	Threshold            float64 // minimum confidence for a match, in [0, 1] (default 0.6)
	LookalikeMaxDistance float64 // pairs at or under this distance are reported as lookalikes (default 0.4)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS allow-list in addition to localhost
}

type AdminConfig struct {
	JWTSecret string // empty disables admin authentication
	JWTIssuer string
}

// AuthEnabled reports whether admin endpoints require a token
func (c *AdminConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}

type LogConfig struct {
	Level slog.Level
	File  string // optional JSON log file
}

var supportedDrivers = []string{"postgres", "sqlite", "mysql"}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or not a number.
// Range checks are left to Validate.
func envFloat(key string, defaultVal float64) float64 {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty items
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseLevel maps LOG_LEVEL to a slog level, defaulting to INFO
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       strings.ToLower(envString("DATABASE_DRIVER", "postgres")),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Match: MatchConfig{
			Threshold:            envFloat("MATCH_THRESHOLD", 0.6),
			LookalikeMaxDistance: envFloat("LOOKALIKE_MAX_DISTANCE", 0.4),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Admin: AdminConfig{
			JWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
			JWTIssuer: envString("ADMIN_JWT_ISSUER", "facegate"),
		},
		Log: LogConfig{
			Level: parseLevel(os.Getenv("LOG_LEVEL")),
			File:  os.Getenv("LOG_FILE"),
		},
	}
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	if !slices.Contains(supportedDrivers, c.Database.Driver) {
		return fmt.Errorf("DATABASE_DRIVER %q is not supported (use one of %s)",
			c.Database.Driver, strings.Join(supportedDrivers, ", "))
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be within [0, 1], got %v", c.Match.Threshold)
	}
	if c.Match.LookalikeMaxDistance <= 0 {
		return fmt.Errorf("LOOKALIKE_MAX_DISTANCE must be positive, got %v", c.Match.LookalikeMaxDistance)
	}
	return nil
}
