// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// entry is a cached value. A zero expiresAt never expires.
type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a thread-safe in-process Shared implementation with per-entry expiry.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
	closed  bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock overrides the time source. Tests use it to cross midnight.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a Memory cache. A positive cleanupInterval starts a
// background loop that drops expired entries; Close stops it.
func NewMemory(cleanupInterval time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if cleanupInterval > 0 {
		go m.cleanupLoop(cleanupInterval)
	}
	return m
}

// lookup returns the live entry for key, dropping it if expired. mu must be held.
func (m *Memory) lookup(key string) (entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return entry{}, false
	}
	return e, true
}

// Get implements Shared.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	e, ok := m.lookup(key)
	return e.value, ok, nil
}

// Set implements Shared.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Incr implements Shared.
func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	e, ok := m.lookup(key)
	var n int64
	if ok {
		var err error
		if n, err = strconv.ParseInt(e.value, 10, 64); err != nil {
			return 0, fmt.Errorf("incr %s: %w", key, ErrNotInteger)
		}
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	m.entries[key] = e
	return n, nil
}

// Exists implements Shared.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.lookup(key)
	return ok, nil
}

// Delete implements Shared.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key)
	return nil
}

// TTL returns the remaining lifetime of key. The second result is false when
// the key is missing; a zero duration with true means no expiry.
func (m *Memory) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(key)
	if !ok || e.expiresAt.IsZero() {
		return 0, ok
	}
	return e.expiresAt.Sub(m.now()), true
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.entries)
}

// Close stops the cleanup loop. Further operations return ErrClosed.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	m.closed = true
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.sweep()
			m.mu.Unlock()
		case <-m.stopCh:
			return
		}
	}
}

// sweep drops expired entries. mu must be held.
func (m *Memory) sweep() {
	now := m.now()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}
