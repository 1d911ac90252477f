// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Template source backends.
const (
	SourceFS       = "fs"
	SourceDatabase = "database"
)

// Bytecode cache backends.
const (
	BytecodeNone   = "none"
	BytecodeFS     = "fs"
	BytecodeValkey = "valkey"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Template resolution
	TemplateSource string // "fs" or "database"
	TemplateDir    string // search root for the fs source
	CacheSize      int    // compiled-template cache capacity; 0 disables, negative is unbounded
	Autoescape     bool
	WarmupFilter   string // glob of templates to precompile at startup; empty skips warmup

	// Bytecode cache
	BytecodeBackend string // "none", "fs", or "valkey"
	BytecodeDir     string // directory for the fs backend
	BytecodeTTL     time.Duration

	// PostgreSQL connection (used when TemplateSource is "database")
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyEnabled  bool
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		TemplateSource: envOrDefault("TEMPLATE_SOURCE", SourceFS),
		TemplateDir:    envOrDefault("TEMPLATE_DIR", "./templates"),
		WarmupFilter:   os.Getenv("TEMPLATE_WARMUP"),

		BytecodeBackend: envOrDefault("BYTECODE_CACHE", BytecodeNone),
		BytecodeDir:     envOrDefault("BYTECODE_CACHE_DIR", "./.bytecode-cache"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "tmplpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "tmplpress"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	var err error
	cfg.CacheSize, err = intOrDefault("TEMPLATE_CACHE_SIZE", 400)
	if err != nil {
		return nil, err
	}
	cfg.Autoescape, err = boolOrDefault("TEMPLATE_AUTOESCAPE", true)
	if err != nil {
		return nil, err
	}
	cfg.ValkeyEnabled, err = boolOrDefault("VALKEY_ENABLED", true)
	if err != nil {
		return nil, err
	}
	cfg.BytecodeTTL, err = durationOrDefault("BYTECODE_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	switch cfg.TemplateSource {
	case SourceFS, SourceDatabase:
	default:
		return nil, fmt.Errorf("TEMPLATE_SOURCE must be %q or %q, got %q", SourceFS, SourceDatabase, cfg.TemplateSource)
	}

	switch cfg.BytecodeBackend {
	case BytecodeNone, BytecodeFS:
	case BytecodeValkey:
		if !cfg.ValkeyEnabled {
			return nil, fmt.Errorf("BYTECODE_CACHE=valkey requires VALKEY_ENABLED=true")
		}
	default:
		return nil, fmt.Errorf("BYTECODE_CACHE must be %q, %q or %q, got %q", BytecodeNone, BytecodeFS, BytecodeValkey, cfg.BytecodeBackend)
	}

	if cfg.Env == "production" && cfg.TemplateSource == SourceDatabase {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ValkeyAddr returns the Valkey server address (host:port).
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.ValkeyHost, c.ValkeyPort)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func boolOrDefault(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like \"24h\", got %q", key, v)
	}
	return d, nil
}
