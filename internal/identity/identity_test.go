// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/store"
)

const testSecret = "test-secret-with-at-least-32-characters!!"

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	return m
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	if _, err := NewTokenManager(&config.SecurityConfig{}); err == nil {
		t.Error("NewTokenManager() with empty secret should fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)
	u := &models.User{ID: 42, UserAccount: "ada", Role: models.RoleAdmin}

	token, err := m.GenerateToken(u)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != 42 || claims.Role != "admin" || claims.Subject != "ada" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	m := newTestManager(t)
	u := &models.User{ID: 42, Role: models.RoleNormal}

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _ := expired.GenerateToken(u)

	other, _ := NewTokenManager(&config.SecurityConfig{JWTSecret: strings.Repeat("x", 40)})
	foreignToken, _ := other.GenerateToken(u)

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 42}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	zeroID, _ := m.GenerateToken(&models.User{ID: 0})

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expiredToken},
		{"wrong secret", foreignToken},
		{"alg none", noneToken},
		{"zero user id", zeroID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() succeeded, want error")
			}
		})
	}
}

func TestProvider_CurrentUser(t *testing.T) {
	var p Provider

	if _, err := p.CurrentUser(context.Background()); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("CurrentUser(empty) error = %v, want ErrUnauthenticated", err)
	}

	u := &models.User{ID: 7}
	got, err := p.CurrentUser(WithUser(context.Background(), u))
	if err != nil || got != u {
		t.Errorf("CurrentUser() = %v, %v", got, err)
	}

	if _, ok := UserFromContext(WithUser(context.Background(), nil)); ok {
		t.Error("nil user reported as present")
	}
}

func TestMiddleware_Authenticate(t *testing.T) {
	m := newTestManager(t)
	users := store.NewMemory()
	ada := &models.User{ID: 1, UserAccount: "ada", Role: models.RoleAdmin}
	if err := users.Insert(context.Background(), ada); err != nil {
		t.Fatal(err)
	}

	valid, _ := m.GenerateToken(ada)
	ghost, _ := m.GenerateToken(&models.User{ID: 99})

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	var failure error
	mw := NewMiddleware(m, users, func(w http.ResponseWriter, _ *http.Request, err error) {
		failure = err
		w.WriteHeader(http.StatusUnauthorized)
	})
	handler := mw.Authenticate(next)

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantUserID int64
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusNoContent, 1},
		{"lowercase scheme", "bearer " + valid, "", http.StatusNoContent, 1},
		{"cookie", "", valid, http.StatusNoContent, 1},
		{"missing", "", "", http.StatusUnauthorized, 0},
		{"basic scheme", "Basic abc", "", http.StatusUnauthorized, 0},
		{"invalid token", "Bearer nope", "", http.StatusUnauthorized, 0},
		{"deleted account", "Bearer " + ghost, "", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen, failure = nil, nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUserID != 0 {
				if seen == nil || seen.ID != tt.wantUserID {
					t.Errorf("context user = %v", seen)
				}
				return
			}
			if !errors.Is(failure, apperrors.ErrUnauthenticated) {
				t.Errorf("failure = %v, want ErrUnauthenticated", failure)
			}
		})
	}
}
