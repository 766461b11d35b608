// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package main

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/usercenter/internal/cache"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/events"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/store"
)

func openStore(cfg *config.Config) (store.UserStore, error) {
	users, err := store.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Breaker.Enabled {
		logging.Info().
			Uint32("failure_threshold", cfg.Breaker.FailureThreshold).
			Dur("timeout", cfg.Breaker.Timeout).
			Msg("User store circuit breaker enabled")
		users = store.NewBreaker(users, cfg.Breaker)
	}
	return users, nil
}

func openCache(cfg *config.CacheConfig) (cache.Shared, error) {
	switch cfg.Driver {
	case "badger":
		b, err := cache.OpenBadger(cache.BadgerConfig{Path: cfg.Path, Namespace: cfg.Namespace})
		if err != nil {
			return nil, err
		}
		return cache.WithMetrics(b), nil
	case "memory":
		return cache.WithMetrics(cache.NewMemory(cfg.CleanupInterval)), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// eventBus is the in-process pub/sub carrying tag change events.
type eventBus struct {
	pubsub    *gochannel.GoChannel
	router    *events.Router
	publisher *events.Publisher
}

func newEventBus() (*eventBus, error) {
	logger := events.NewLogger()
	pubsub := events.NewPubSub(logger)

	router, err := events.NewRouter(events.DefaultRouterConfig(), logger)
	if err != nil {
		return nil, err
	}
	(&events.AuditSubscriber{}).Register(router, pubsub)

	return &eventBus{
		pubsub:    pubsub,
		router:    router,
		publisher: events.NewPublisher(pubsub),
	}, nil
}

func (b *eventBus) close() {
	if err := b.router.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event router")
	}
	if err := b.pubsub.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event pubsub")
	}
}
