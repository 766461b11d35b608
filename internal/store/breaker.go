// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package store

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/models"
)

// Breaker wraps a UserStore with a circuit breaker. While open, calls fail
// fast with an error wrapping apperrors.ErrStorage.
type Breaker struct {
	next UserStore
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreaker wraps next. Caller errors (not found, validation) never count
// toward tripping.
func NewBreaker(next UserStore, cfg config.BreakerConfig) *Breaker {
	const name = "user_store"

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || apperrors.IsClientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("User store circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
		name: name,
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrStorage, err)
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// FindByID implements UserStore.
func (b *Breaker) FindByID(ctx context.Context, id int64) (*models.User, error) {
	res, err := b.execute(func() (any, error) { return b.next.FindByID(ctx, id) })
	if err != nil {
		return nil, err
	}
	return res.(*models.User), nil
}

// UpdateByID implements UserStore.
func (b *Breaker) UpdateByID(ctx context.Context, patch models.UserPatch) (int64, error) {
	res, err := b.execute(func() (any, error) { return b.next.UpdateByID(ctx, patch) })
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// CountWhere implements UserStore.
func (b *Breaker) CountWhere(ctx context.Context, f Filter) (int64, error) {
	res, err := b.execute(func() (any, error) { return b.next.CountWhere(ctx, f) })
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// ListAll implements UserStore.
func (b *Breaker) ListAll(ctx context.Context) ([]models.User, error) {
	res, err := b.execute(func() (any, error) { return b.next.ListAll(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]models.User), nil
}

// Insert implements UserStore.
func (b *Breaker) Insert(ctx context.Context, u *models.User) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Insert(ctx, u) })
	return err
}

// Close closes the wrapped store.
func (b *Breaker) Close() error {
	return b.next.Close()
}
