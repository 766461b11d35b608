// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/identity"
	"github.com/tomtom215/usercenter/internal/middleware"
)

// healthRequestsPerWindow is the permissive limit for monitoring probes.
const healthRequestsPerWindow = 1000

// Router assembles the HTTP handler tree.
type Router struct {
	handler *Handler
	auth    *identity.Middleware
	cfg     MiddlewareConfig
}

// NewRouter creates a Router. tokens and users back the authentication
// middleware.
func NewRouter(handler *Handler, tokens *identity.TokenManager, users identity.UserFinder, cfg MiddlewareConfig) *Router {
	return &Router{
		handler: handler,
		auth:    identity.NewMiddleware(tokens, users, respondError),
		cfg:     cfg,
	}
}

// MiddlewareConfigFrom derives middleware settings from the security section.
func MiddlewareConfigFrom(sec *config.SecurityConfig) MiddlewareConfig {
	cfg := DefaultMiddlewareConfig()
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	if sec.RateLimitReqs > 0 {
		cfg.RateLimitRequests = sec.RateLimitReqs
	}
	if sec.RateLimitWindow > 0 {
		cfg.RateLimitWindow = sec.RateLimitWindow
	}
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	return cfg
}

// Handler returns the configured chi router.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(router.cfg))
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, fmt.Errorf("%w: no route for %s", apperrors.ErrNotFound, req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, fmt.Errorf("%w: method %s not allowed", apperrors.ErrValidation, req.Method))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rateLimit(router.cfg, healthRequestsPerWindow))
		r.Use(securityHeaders)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(rateLimit(router.cfg, router.cfg.RateLimitRequests))
		r.Use(securityHeaders)
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(router.auth.Authenticate)

		r.Post("/update", router.handler.UpdateUser)
		r.Get("/match", router.handler.MatchUsers)
		r.Get("/search/tags", router.handler.SearchByTags)
		r.Get("/current", router.handler.CurrentUser)
	})

	return r
}
