// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package authz

import (
	"strings"
	"sync"
	"time"
)

// decisionCache memoizes enforcement results for a fixed TTL.
type decisionCache struct {
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	items    map[string]decision
	stopChan chan struct{}
	stopOnce sync.Once
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]decision),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func decisionKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

func (c *decisionCache) get(key string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, found := c.items[key]
	if !found || c.now().After(d.expiresAt) {
		return false, false
	}
	return d.allowed, true
}

func (c *decisionCache) set(key string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = decision{allowed: allowed, expiresAt: c.now().Add(c.ttl)}
}

func (c *decisionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// cleanup periodically removes expired items.
func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, d := range c.items {
				if now.After(d.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop is idempotent.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}
