// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package quota limits how often a user may change their tags per calendar day.
//
// The per-user counter lives in the shared cache under a day-stamped key and
// expires at the next local midnight. A mutation is applied to the store
// first; only then is the counter created or incremented and the dependent
// index cache invalidated, in that order. Counter and invalidation failures
// after a committed store write are logged and counted but do not fail the
// request.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/cache"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/store"
)

// DefaultDailyLimit is the number of tag mutations a user may make per day.
const DefaultDailyLimit = 5

// Notifier is told about every applied tag mutation, after invalidation.
type Notifier interface {
	TagsChanged(ctx context.Context, userID int64, tags string, count int64) error
}

// Options configures a Guard.
type Options struct {
	DailyLimit int64
	KeyPrefix  string
	IndexKey   string
	Location   *time.Location
	Now        func() time.Time
	Notifier   Notifier
}

// Guard applies tag mutations subject to the daily limit.
type Guard struct {
	store    store.UserStore
	cache    cache.Shared
	limit    int64
	prefix   string
	indexKey string
	loc      *time.Location
	now      func() time.Time
	notifier Notifier
}

// New creates a Guard.
func New(s store.UserStore, c cache.Shared, opts Options) *Guard {
	g := &Guard{
		store:    s,
		cache:    c,
		limit:    opts.DailyLimit,
		prefix:   opts.KeyPrefix,
		indexKey: opts.IndexKey,
		loc:      opts.Location,
		now:      opts.Now,
		notifier: opts.Notifier,
	}
	if g.limit <= 0 {
		g.limit = DefaultDailyLimit
	}
	if g.prefix == "" {
		g.prefix = "user:tags:rate"
	}
	if g.indexKey == "" {
		g.indexKey = "user:index"
	}
	if g.loc == nil {
		g.loc = time.Local
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Limit returns the configured daily limit.
func (g *Guard) Limit() int64 {
	return g.limit
}

// UntilMidnight returns the whole seconds from now until the next midnight in
// loc. The result is never below one second.
func UntilMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	remaining := next.Sub(now)
	secs := remaining / time.Second
	if remaining%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}

// Apply writes patch for userID if the user is under today's limit and returns
// the affected row count.
func (g *Guard) Apply(ctx context.Context, userID int64, patch models.UserPatch) (int64, error) {
	patch.ID = userID
	log := logging.CtxComponent(ctx, "quota")

	now := g.now()
	key := cache.RateCounterKey(g.prefix, userID, now.In(g.loc))

	raw, present, err := g.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordTagMutation("cache_failed")
		return 0, fmt.Errorf("%w: read rate counter: %v", apperrors.ErrStorage, err)
	}

	var count int64
	if present {
		if count, err = strconv.ParseInt(raw, 10, 64); err != nil {
			metrics.RecordTagMutation("cache_failed")
			return 0, fmt.Errorf("%w: rate counter %s holds %q", apperrors.ErrStorage, key, raw)
		}
		if count >= g.limit {
			metrics.RecordTagMutation("quota_exceeded")
			log.Warn().Int64("user_id", userID).Int64("count", count).Int64("limit", g.limit).
				Msg("Tag update rejected: daily limit reached")
			return 0, fmt.Errorf("%w: %d of %d used today", apperrors.ErrQuotaExceeded, count, g.limit)
		}
	}

	rows, err := g.store.UpdateByID(ctx, patch)
	if err != nil {
		metrics.RecordTagMutation("store_failed")
		return 0, fmt.Errorf("%w: update tags for user %d: %v", apperrors.ErrStorage, userID, err)
	}
	if rows <= 0 {
		metrics.RecordTagMutation("store_failed")
		return 0, fmt.Errorf("%w: update tags for user %d affected no rows", apperrors.ErrStorage, userID)
	}

	count = g.record(ctx, key, present, count, now)
	g.invalidateIndex(ctx)

	metrics.RecordTagMutation("applied")
	log.Info().Int64("user_id", userID).Int64("count", count).Msg("Tags updated")

	if g.notifier != nil && patch.Tags != nil {
		if err := g.notifier.TagsChanged(ctx, userID, *patch.Tags, count); err != nil {
			metrics.RecordQuotaCounterError("notify")
			log.Warn().Err(err).Int64("user_id", userID).Msg("Tag change notification failed")
		}
	}

	return rows, nil
}

// record creates or increments the counter after a committed mutation and
// returns the best known count.
func (g *Guard) record(ctx context.Context, key string, present bool, prev int64, now time.Time) int64 {
	log := logging.CtxComponent(ctx, "quota")

	if !present {
		ttl := UntilMidnight(now, g.loc)
		if err := g.cache.Set(ctx, key, "1", ttl); err != nil {
			metrics.RecordQuotaCounterError("create")
			log.Warn().Err(err).Str("key", key).Msg("Rate counter create failed; quota under-counts")
			return 1
		}
		return 1
	}

	n, err := g.cache.Incr(ctx, key)
	if err != nil {
		metrics.RecordQuotaCounterError("increment")
		log.Warn().Err(err).Str("key", key).Msg("Rate counter increment failed; quota under-counts")
		return prev + 1
	}
	return n
}

// invalidateIndex deletes the dependent index entry if it exists.
func (g *Guard) invalidateIndex(ctx context.Context) {
	log := logging.CtxComponent(ctx, "quota")

	exists, err := g.cache.Exists(ctx, g.indexKey)
	if err != nil {
		metrics.RecordIndexInvalidation("failed")
		log.Warn().Err(err).Str("key", g.indexKey).Msg("Index cache check failed")
		return
	}
	if !exists {
		metrics.RecordIndexInvalidation("absent")
		return
	}
	if err := g.cache.Delete(ctx, g.indexKey); err != nil {
		metrics.RecordIndexInvalidation("failed")
		log.Warn().Err(err).Str("key", g.indexKey).Msg("Index cache invalidation failed")
		return
	}
	metrics.RecordIndexInvalidation("deleted")
	log.Debug().Str("key", g.indexKey).Msg("Index cache invalidated")
}

// Remaining returns how many tag mutations userID has left today.
func (g *Guard) Remaining(ctx context.Context, userID int64) (int64, error) {
	key := cache.RateCounterKey(g.prefix, userID, g.now().In(g.loc))
	raw, present, err := g.cache.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: read rate counter: %v", apperrors.ErrStorage, err)
	}
	if !present {
		return g.limit, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rate counter %s holds %q", apperrors.ErrStorage, key, raw)
	}
	return max(g.limit-n, 0), nil
}
