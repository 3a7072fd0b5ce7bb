package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAPIURL        = "AUCTION_API_URL"
	EnvAPIEmail      = "AUCTION_API_EMAIL"
	EnvAPIPassword   = "AUCTION_API_PASSWORD"
	EnvPageLimit     = "AUCTION_PAGE_LIMIT"
	EnvUserAgent     = "USER_AGENT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogPretty     = "LOG_PRETTY"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvMetricsAddr   = "METRICS_ADDR"
	EnvInterval      = "MONITOR_INTERVAL"
)

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadAndValidate builds the effective configuration: the file at path (if
// path is not empty), then environment overrides, then defaults. The result
// is validated.
func LoadAndValidate(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides fields whose environment variable is set and non-empty.
func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(EnvAPIURL, &c.API.BaseURL)
	setString(EnvAPIEmail, &c.API.Email)
	setString(EnvAPIPassword, &c.API.Password)
	setString(EnvUserAgent, &c.API.UserAgent)
	setString(EnvLogLevel, &c.Log.Level)
	setString(EnvRedisAddr, &c.Redis.Addr)
	setString(EnvRedisPassword, &c.Redis.Password)
	setString(EnvMetricsAddr, &c.Monitor.MetricsAddr)

	if v := getenv(EnvPageLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvPageLimit, err)
		}
		c.API.PageLimit = n
	}
	if v := getenv(EnvRedisDB); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvRedisDB, err)
		}
		c.Redis.DB = n
	}
	if v := getenv(EnvLogPretty); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", EnvLogPretty, err)
		}
		c.Log.Pretty = b
	}
	if v := getenv(EnvInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a duration: %w", EnvInterval, err)
		}
		c.Monitor.Interval = d
	}

	return nil
}
