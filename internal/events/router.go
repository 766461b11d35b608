// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// RouterConfig holds configuration for the Watermill router.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// Router runs event consumers. It implements suture.Service.
type Router struct {
	router *message.Router
}

// NewRouter creates a router with panic recovery, retry and correlation ID
// propagation.
func NewRouter(cfg RouterConfig, logger watermill.LoggerAdapter) (*Router, error) {
	wm, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		Logger:          logger,
	}
	wm.AddMiddleware(middleware.Recoverer, middleware.CorrelationID, retry.Middleware)

	return &Router{router: wm}, nil
}

// AddConsumer registers handler for topic on sub.
func (r *Router) AddConsumer(name, topic string, sub message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.router.AddConsumerHandler(name, topic, sub, handler)
}

// Running closes once all handlers are subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Serve runs the router until ctx is canceled.
func (r *Router) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Close stops the router.
func (r *Router) Close() error {
	return r.router.Close()
}

// String implements fmt.Stringer for suture logging.
func (r *Router) String() string {
	return "event-router"
}
