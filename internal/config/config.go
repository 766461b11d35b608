// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Match    MatchConfig    `koanf:"match"`
	Guard    GuardConfig    `koanf:"guard"`
	Breaker  BreakerConfig  `koanf:"breaker"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and tunes the user store.
type DatabaseConfig struct {
	Driver    string `koanf:"driver"` // duckdb or memory
	Path      string `koanf:"path"`   // ":memory:" for an ephemeral DuckDB
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = NumCPU
}

// CacheConfig selects the shared cache and its keys.
type CacheConfig struct {
	Driver          string        `koanf:"driver"` // badger or memory
	Path            string        `koanf:"path"`   // empty = in-memory badger
	Namespace       string        `koanf:"namespace"`
	RateKeyPrefix   string        `koanf:"rate_key_prefix"`
	IndexKey        string        `koanf:"index_key"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SecurityConfig holds authentication and authorization settings
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	Casbin            CasbinConfig  `koanf:"casbin"`
}

// CasbinConfig holds the authorization engine settings. Empty paths use the
// embedded model and policy.
type CasbinConfig struct {
	ModelPath    string        `koanf:"model_path"`
	PolicyPath   string        `koanf:"policy_path"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// MatchConfig tunes the similarity ranker.
type MatchConfig struct {
	DefaultK  int    `koanf:"default_k"`
	MaxK      int    `koanf:"max_k"`
	TiePolicy string `koanf:"tie_policy"` // last_write_wins or keep_all
	Exclusion string `koanf:"exclusion"`  // value or identity
	Workers   int    `koanf:"workers"`    // 0 = GOMAXPROCS
}

// GuardConfig tunes the tag mutation rate guard.
type GuardConfig struct {
	DailyLimit int64  `koanf:"daily_limit"`
	Timezone   string `koanf:"timezone"` // IANA name; "Local" uses the host zone
}

// Location resolves Timezone.
func (g GuardConfig) Location() (*time.Location, error) {
	if g.Timezone == "" || g.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(g.Timezone)
}

// BreakerConfig configures the circuit breaker around the user store.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
