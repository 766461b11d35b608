// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package main is the entry point for the usercenter server.
//
// Components are initialized in this order:
//
//  1. Configuration (koanf: defaults, config file, environment)
//  2. Logging (zerolog)
//  3. User store (DuckDB or memory), optionally behind a circuit breaker
//  4. Shared cache (BadgerDB or memory) for the daily tag counters
//  5. Authorization (casbin) and token validation (JWT)
//  6. Event bus (watermill) with the audit consumer
//  7. Tag mutation guard, similarity ranker and profile service
//  8. HTTP router (chi)
//  9. Supervisor tree (suture) running the event router and HTTP server
//
// SIGINT and SIGTERM cancel the tree, which shuts the HTTP server down
// gracefully before the stores are closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/usercenter/internal/api"
	"github.com/tomtom215/usercenter/internal/authz"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/identity"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/profile"
	"github.com/tomtom215/usercenter/internal/quota"
	"github.com/tomtom215/usercenter/internal/similarity"
	"github.com/tomtom215/usercenter/internal/supervisor"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting usercenter")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	users, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := users.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing user store")
		}
	}()

	shared, err := openCache(&cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := shared.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing shared cache")
		}
	}()

	az, err := authz.New(&cfg.Security.Casbin)
	if err != nil {
		return err
	}
	defer az.Close()

	tokens, err := identity.NewTokenManager(&cfg.Security)
	if err != nil {
		return err
	}

	bus, err := newEventBus()
	if err != nil {
		return err
	}
	defer bus.close()

	loc, err := cfg.Guard.Location()
	if err != nil {
		return err
	}
	guard := quota.New(users, shared, quota.Options{
		DailyLimit: cfg.Guard.DailyLimit,
		KeyPrefix:  cfg.Cache.RateKeyPrefix,
		IndexKey:   cfg.Cache.IndexKey,
		Location:   loc,
		Notifier:   bus.publisher,
	})

	ranker, err := newRanker(&cfg.Match)
	if err != nil {
		return err
	}

	svc := profile.NewService(users, az, guard, ranker, profile.Config{
		DefaultK: cfg.Match.DefaultK,
		MaxK:     cfg.Match.MaxK,
	})

	router := api.NewRouter(api.NewHandler(svc, version), tokens, users, api.MiddlewareConfigFrom(&cfg.Security))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(bus.router)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newRanker(cfg *config.MatchConfig) (*similarity.Ranker, error) {
	tie, err := similarity.ParseTiePolicy(cfg.TiePolicy)
	if err != nil {
		return nil, err
	}
	exclusion, err := similarity.ParseExclusion(cfg.Exclusion)
	if err != nil {
		return nil, err
	}
	return similarity.NewRanker(similarity.Options{
		TiePolicy: tie,
		Exclusion: exclusion,
		Workers:   cfg.Workers,
	}), nil
}
