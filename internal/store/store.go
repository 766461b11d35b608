// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package store persists user records.
//
// UserStore is implemented by DuckDB (persistent), Memory (tests and the
// "memory" driver), and Breaker, a circuit-breaking decorator. All
// implementations hide soft-deleted rows from reads and updates.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/models"
)

// UserStore is the user record store.
type UserStore interface {
	// FindByID returns the live user with id, or an error wrapping apperrors.ErrNotFound.
	FindByID(ctx context.Context, id int64) (*models.User, error)

	// UpdateByID writes the non-nil fields of patch and returns the affected row count.
	UpdateByID(ctx context.Context, patch models.UserPatch) (int64, error)

	// CountWhere counts live users matching f.
	CountWhere(ctx context.Context, f Filter) (int64, error)

	// ListAll returns every live user ordered by ID.
	ListAll(ctx context.Context) ([]models.User, error)

	// Insert adds a user. The ID must be positive and unused.
	Insert(ctx context.Context, u *models.User) error

	io.Closer
}

// Filter narrows CountWhere. Zero fields do not filter.
type Filter struct {
	ID          int64
	UserAccount string
	Role        models.Role
	HasTags     bool
}

// Open creates the store selected by cfg.Driver.
func Open(cfg *config.DatabaseConfig) (UserStore, error) {
	switch cfg.Driver {
	case "duckdb":
		return NewDuckDB(cfg)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", apperrors.ErrNotFound, id)
}

func emptyPatch(id int64) error {
	return fmt.Errorf("%w: update for id %d sets no fields", apperrors.ErrValidation, id)
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
