// Package config loads the auction monitor configuration.
//
// Values come from three layers, later ones winning: an optional YAML file
// (with ${VAR} expansion), environment variables (optionally seeded from a
// .env file), and built-in defaults for anything still unset.
package config

import "time"

// Config is the root configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Log     LogConfig     `yaml:"log"`
	Redis   RedisConfig   `yaml:"redis"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// APIConfig holds the marketplace connection settings.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Email     string        `yaml:"email"`
	Password  string        `yaml:"password"`
	PageLimit int           `yaml:"page_limit"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// RedisConfig enables the cross-process cycle lock. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockKey  string        `yaml:"lock_key"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// MonitorConfig controls how cycles are scheduled and observed.
type MonitorConfig struct {
	// Interval between cycles. Zero runs a single cycle and exits.
	Interval time.Duration `yaml:"interval"`

	// MetricsAddr is the listen address for /metrics and /health. Empty
	// disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
