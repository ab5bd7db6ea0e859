package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.ClientURL, "CLIENT_URL")
	setString(&cfg.Database.AuthPath, "AUTH_DB_PATH")
	setString(&cfg.Database.TaskPath, "TASK_DB_PATH")
	setString(&cfg.Auth.SecretKey, "JWT_SECRET_KEY")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.RateLimit.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if err := setBool(&cfg.Database.Debug, "DB_DEBUG"); err != nil {
		return err
	}
	if err := setInt(&cfg.RateLimit.Limit, "LOGIN_RATE_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Auth.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}

	durations := []struct {
		target *time.Duration
		key    string
	}{
		{&cfg.Auth.AccessTokenTTL, "JWT_ACCESS_TTL"},
		{&cfg.Auth.RefreshTokenTTL, "JWT_REFRESH_TTL"},
		{&cfg.RateLimit.Window, "LOGIN_RATE_WINDOW"},
		{&cfg.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"},
	}
	for _, d := range durations {
		if err := setDuration(d.target, d.key); err != nil {
			return err
		}
	}
	return nil
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setBool(target *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*target = b
	return nil
}

func setInt(target *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*target = n
	return nil
}

func setDuration(target *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*target = d
	return nil
}
