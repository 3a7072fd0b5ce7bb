package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Email == "" {
		return errors.New("api.email is required")
	}
	if c.API.Password == "" {
		return errors.New("api.password is required")
	}
	if c.API.PageLimit < 1 {
		return fmt.Errorf("api.page_limit must be >= 1, got %d", c.API.PageLimit)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if c.Redis.Addr != "" && c.Redis.LockTTL < time.Second {
		return fmt.Errorf("redis.lock_ttl must be >= 1s, got %s", c.Redis.LockTTL)
	}

	if c.Monitor.Interval < 0 {
		return fmt.Errorf("monitor.interval must be >= 0, got %s", c.Monitor.Interval)
	}

	return nil
}
