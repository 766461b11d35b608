// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package identity

import (
	"context"
	"fmt"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/models"
)

type contextKey string

const userContextKey contextKey = "identity_user"

// WithUser returns a copy of ctx carrying u as the acting user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the acting user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok && u != nil
}

// Provider resolves the acting user of a request.
type Provider struct{}

// CurrentUser returns the user placed in ctx by the authentication
// middleware, or ErrUnauthenticated.
func (Provider) CurrentUser(ctx context.Context) (*models.User, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: no user in request context", apperrors.ErrUnauthenticated)
	}
	return u, nil
}
