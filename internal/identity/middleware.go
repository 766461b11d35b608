// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/models"
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

// UserFinder loads users by id.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates requests with bearer tokens.
type Middleware struct {
	tokens *TokenManager
	users  UserFinder
	fail   ErrorWriter
}

// NewMiddleware creates the authentication middleware. A nil fail writes a
// plain-text 401.
func NewMiddleware(tokens *TokenManager, users UserFinder, fail ErrorWriter) *Middleware {
	if fail == nil {
		fail = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{tokens: tokens, users: users, fail: fail}
}

// Authenticate rejects requests without a valid token for an existing user
// and otherwise stores that user in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			m.fail(w, r, err)
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			m.fail(w, r, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthenticated))
			return
		}

		user, err := m.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				err = fmt.Errorf("%w: account no longer exists", apperrors.ErrUnauthenticated)
			}
			m.fail(w, r, err)
			return
		}

		ctx := WithUser(r.Context(), user)
		ctx = logging.ContextWithLogger(ctx, logging.LoggerFromContext(ctx).With().Int64("user_id", user.ID).Logger())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return "", fmt.Errorf("%w: missing token", apperrors.ErrUnauthenticated)
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: invalid authorization header", apperrors.ErrUnauthenticated)
	}
	return parts[1], nil
}
