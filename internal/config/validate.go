// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package config

import (
	"fmt"
	"time"
)

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// minJWTSecretLength is the shortest accepted HMAC secret.
const minJWTSecretLength = 32

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateCache,
		c.validateSecurity,
		c.validateMatch,
		c.validateGuard,
		c.validateBreaker,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb":
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case "memory":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be duckdb or memory, got %q", c.Database.Driver)
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Driver {
	case "badger", "memory":
	default:
		return fmt.Errorf("CACHE_DRIVER must be badger or memory, got %q", c.Cache.Driver)
	}
	if c.Cache.RateKeyPrefix == "" {
		return fmt.Errorf("CACHE_RATE_KEY_PREFIX must not be empty")
	}
	if c.Cache.IndexKey == "" {
		return fmt.Errorf("CACHE_INDEX_KEY must not be empty")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production; list explicit origins")
	}
	if c.Security.Casbin.CacheEnabled && c.Security.Casbin.CacheTTL <= 0 {
		return fmt.Errorf("CASBIN_CACHE_TTL must be positive when the decision cache is enabled")
	}
	return c.validateRateLimits()
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateMatch() error {
	if c.Match.DefaultK < 1 {
		return fmt.Errorf("MATCH_DEFAULT_K must be at least 1")
	}
	if c.Match.MaxK < c.Match.DefaultK {
		return fmt.Errorf("MATCH_MAX_K (%d) must not be below MATCH_DEFAULT_K (%d)", c.Match.MaxK, c.Match.DefaultK)
	}
	switch c.Match.TiePolicy {
	case "last_write_wins", "keep_all":
	default:
		return fmt.Errorf("MATCH_TIE_POLICY must be last_write_wins or keep_all, got %q", c.Match.TiePolicy)
	}
	switch c.Match.Exclusion {
	case "value", "identity":
	default:
		return fmt.Errorf("MATCH_EXCLUSION must be value or identity, got %q", c.Match.Exclusion)
	}
	if c.Match.Workers < 0 {
		return fmt.Errorf("MATCH_WORKERS must not be negative")
	}
	return nil
}

func (c *Config) validateGuard() error {
	if c.Guard.DailyLimit < 1 {
		return fmt.Errorf("TAG_DAILY_LIMIT must be at least 1")
	}
	if _, err := c.Guard.Location(); err != nil {
		return fmt.Errorf("GUARD_TIMEZONE %q: %w", c.Guard.Timezone, err)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
