package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL   = "https://api-core-dev.caronsale.de/api"
	DefaultPageLimit = 4000
	DefaultUserAgent = "auction-monitor/0.1.0"
	DefaultTimeout   = 30 * time.Second
	DefaultLogLevel  = "info"
	DefaultLockTTL   = 5 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.PageLimit == 0 {
		c.API.PageLimit = DefaultPageLimit
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	if c.Redis.Addr != "" && c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = DefaultLockTTL
	}
}
