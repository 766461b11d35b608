// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/usercenter/internal/logging"
)

// maxConflictRetries bounds Incr retries on optimistic transaction conflicts.
const maxConflictRetries = 100

// Badger is a BadgerDB-backed Shared implementation.
// Increments run inside a single read-write transaction; badger's conflict
// detection makes concurrent Incr calls on the same key serializable.
type Badger struct {
	db     *badger.DB
	prefix []byte
	owned  bool

	mu     sync.RWMutex
	closed bool
}

// BadgerConfig configures OpenBadger.
type BadgerConfig struct {
	// Path is the data directory. Empty opens an in-memory database.
	Path string

	// Namespace is prepended to every key.
	Namespace string
}

// OpenBadger opens a BadgerDB database owned by the returned cache.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	b := NewBadger(db, cfg.Namespace)
	b.owned = true
	return b, nil
}

// NewBadger wraps an existing database. Close does not close db.
func NewBadger(db *badger.DB, namespace string) *Badger {
	return &Badger{db: db, prefix: []byte(namespace)}
}

func (b *Badger) key(k string) []byte {
	out := make([]byte, 0, len(b.prefix)+len(k))
	out = append(out, b.prefix...)
	return append(out, k...)
}

func (b *Badger) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// Get implements Shared.
func (b *Badger) Get(_ context.Context, key string) (string, bool, error) {
	if err := b.checkOpen(); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, found, nil
}

// Set implements Shared.
func (b *Badger) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if err := b.checkOpen(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(b.key(key), []byte(value))
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Incr implements Shared.
func (b *Badger) Incr(ctx context.Context, key string) (int64, error) {
	if err := b.checkOpen(); err != nil {
		return 0, err
	}

	k := b.key(key)
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var n int64
		err := b.db.Update(func(txn *badger.Txn) error {
			var expiresAt uint64
			item, err := txn.Get(k)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				expiresAt = item.ExpiresAt()
				if err := item.Value(func(val []byte) error {
					parsed, perr := strconv.ParseInt(string(val), 10, 64)
					if perr != nil {
						return ErrNotInteger
					}
					n = parsed
					return nil
				}); err != nil {
					return err
				}
			}

			n++
			e := badger.NewEntry(k, []byte(strconv.FormatInt(n, 10)))
			e.ExpiresAt = expiresAt
			return txn.SetEntry(e)
		})
		if errors.Is(err, badger.ErrConflict) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			logging.Debug().Str("key", key).Int("attempt", attempt+1).Msg("Counter increment conflict, retrying")
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("incr %s: %w", key, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("incr %s: %w after %d attempts", key, badger.ErrConflict, maxConflictRetries)
}

// Exists implements Shared.
func (b *Badger) Exists(_ context.Context, key string) (bool, error) {
	if err := b.checkOpen(); err != nil {
		return false, err
	}

	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(b.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return found, nil
}

// Delete implements Shared.
func (b *Badger) Delete(_ context.Context, key string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(b.key(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// TTL returns the remaining lifetime of key. See Memory.TTL.
func (b *Badger) TTL(key string) (time.Duration, bool, error) {
	if err := b.checkOpen(); err != nil {
		return 0, false, err
	}

	var (
		ttl   time.Duration
		found bool
	)
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		if exp := item.ExpiresAt(); exp > 0 {
			ttl = time.Until(time.Unix(int64(exp), 0))
		}
		return nil
	})
	return ttl, found, err
}

// Close marks the cache closed and closes the database when owned.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.owned {
		return b.db.Close()
	}
	return nil
}
