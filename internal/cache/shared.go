// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package cache provides the shared key/value cache used for per-user rate
// counters and the dependent index marker.
//
// Two implementations are available: Badger (persistent, shared across
// restarts) and Memory (process-local, for tests and single-node setups).
// Both guarantee that Incr is atomic at the cache layer.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// ErrNotInteger is returned by Incr when the stored value is not a decimal integer.
var ErrNotInteger = errors.New("value is not an integer")

// Shared is the shared cache contract.
type Shared interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A ttl of zero stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically adds one to the integer stored at key and returns the
	// new value. A missing key counts from zero and is created without expiry.
	// An existing expiry is preserved.
	Incr(ctx context.Context, key string) (int64, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// RateCounterKey returns the counter key for userID on the calendar day of day.
//
//	RateCounterKey("user:tags:rate", 42, t) // "user:tags:rate:42:20260115"
func RateCounterKey(prefix string, userID int64, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s", prefix, userID, day.Format("20060102"))
}
