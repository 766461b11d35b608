// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/usercenter/internal/metrics"
)

// Instrumented records every call on the wrapped cache in Prometheus.
type Instrumented struct {
	next Shared
}

// WithMetrics wraps next with Prometheus instrumentation.
func WithMetrics(next Shared) *Instrumented {
	return &Instrumented{next: next}
}

func result(err error, ok string) string {
	if err != nil {
		return "error"
	}
	return ok
}

// Get implements Shared.
func (c *Instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	v, found, err := c.next.Get(ctx, key)
	hit := "miss"
	if found {
		hit = "hit"
	}
	metrics.RecordCacheOperation("get", result(err, hit))
	return v, found, err
}

// Set implements Shared.
func (c *Instrumented) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	metrics.RecordCacheOperation("set", result(err, "ok"))
	return err
}

// Incr implements Shared.
func (c *Instrumented) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.next.Incr(ctx, key)
	metrics.RecordCacheOperation("incr", result(err, "ok"))
	return n, err
}

// Exists implements Shared.
func (c *Instrumented) Exists(ctx context.Context, key string) (bool, error) {
	found, err := c.next.Exists(ctx, key)
	hit := "miss"
	if found {
		hit = "hit"
	}
	metrics.RecordCacheOperation("exists", result(err, hit))
	return found, err
}

// Delete implements Shared.
func (c *Instrumented) Delete(ctx context.Context, key string) error {
	err := c.next.Delete(ctx, key)
	metrics.RecordCacheOperation("delete", result(err, "ok"))
	return err
}

// Close implements Shared.
func (c *Instrumented) Close() error {
	return c.next.Close()
}
