// Package config loads the task manager settings.
//
// Sources are applied in order, later ones winning:
//  1. Built-in defaults
//  2. TOML file (taskmanager.toml, or the path in TASKMANAGER_CONFIG)
//  3. .env file in the working directory (never overrides variables already set)
//  4. Process environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DefaultConfigFile is looked up in the working directory when
	// TASKMANAGER_CONFIG is unset.
	DefaultConfigFile = "taskmanager.toml"
	// DefaultDevOrigin is the local web client origin; it is always allowed.
	DefaultDevOrigin = "http://localhost:5173"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string        `toml:"port"`
	ClientURL       string        `toml:"client_url"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig configures the SQLite stores.
type DatabaseConfig struct {
	AuthPath string `toml:"auth_path"`
	TaskPath string `toml:"task_path"`
	Debug    bool   `toml:"debug"`
}

// AuthConfig configures token issuing and password hashing.
type AuthConfig struct {
	SecretKey       string        `toml:"secret_key"`
	Issuer          string        `toml:"issuer"`
	AccessTokenTTL  time.Duration `toml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `toml:"refresh_token_ttl"`
	BcryptCost      int           `toml:"bcrypt_cost"`
}

// RateLimitConfig configures the credential endpoint limiter.
// An empty RedisAddr disables limiting.
type RateLimitConfig struct {
	RedisAddr string        `toml:"redis_addr"`
	Limit     int           `toml:"limit"`
	Window    time.Duration `toml:"window"`
}

// LogConfig configures the framework logger. Level is "info" or "error".
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5000",
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			AuthPath: "taskmanager_auth.db",
			TaskPath: "taskmanager_tasks.db",
		},
		Auth: AuthConfig{
			SecretKey:       "your-secret-key-change-in-production",
			Issuer:          "task-manager",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			BcryptCost:      12,
		},
		RateLimit: RateLimitConfig{
			Limit:  10,
			Window: time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from every source.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("TASKMANAGER_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := loadFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes a TOML file over cfg. A missing file is only an error when
// it was named explicitly.
func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("JWT secret key must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.RateLimit.RedisAddr != "" && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit and window must be positive")
	}
	switch c.Log.Level {
	case "info", "error":
	default:
		return fmt.Errorf("log level must be info or error, got %q", c.Log.Level)
	}
	return nil
}

// AllowedOrigins returns the CORS allow-list: the local dev client plus
// CLIENT_URL when set.
func (c *Config) AllowedOrigins() []string {
	origins := []string{DefaultDevOrigin}
	if url := strings.TrimRight(strings.TrimSpace(c.Server.ClientURL), "/"); url != "" && url != DefaultDevOrigin {
		origins = append(origins, url)
	}
	return origins
}

// ListenAddr returns the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	if strings.Contains(c.Server.Port, ":") {
		return c.Server.Port
	}
	return ":" + c.Server.Port
}
