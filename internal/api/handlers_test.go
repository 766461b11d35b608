// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/authz"
	"github.com/tomtom215/usercenter/internal/cache"
	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/identity"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/profile"
	"github.com/tomtom215/usercenter/internal/quota"
	"github.com/tomtom215/usercenter/internal/similarity"
	"github.com/tomtom215/usercenter/internal/store"
)

type testServer struct {
	handler http.Handler
	tokens  map[int64]string
}

func newTestServer(t *testing.T, mwCfg MiddlewareConfig) *testServer {
	t.Helper()
	ctx := context.Background()

	users := store.NewMemory()
	seed := []models.User{
		{ID: 1, UserAccount: "root", Role: models.RoleAdmin, Tags: `["ops"]`},
		{ID: 2, UserAccount: "alice", Tags: `["go","rust"]`, Email: "alice@example.com"},
		{ID: 3, UserAccount: "bob", Tags: `["go","zig"]`},
		{ID: 4, UserAccount: "carol", Tags: `["python"]`},
	}
	for i := range seed {
		if err := users.Insert(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	az, err := authz.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(az.Close)

	c := cache.NewMemory(0)
	t.Cleanup(func() { _ = c.Close() })

	guard := quota.New(users, c, quota.Options{Location: time.UTC})
	svc := profile.NewService(users, az, guard, similarity.NewRanker(similarity.Options{}), profile.Config{DefaultK: 10, MaxK: 20})

	tm, err := identity.NewTokenManager(&config.SecurityConfig{JWTSecret: strings.Repeat("s", 40), SessionTimeout: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	tokens := make(map[int64]string)
	for i := range seed {
		u, _ := users.FindByID(ctx, seed[i].ID)
		if tokens[u.ID], err = tm.GenerateToken(u); err != nil {
			t.Fatal(err)
		}
	}

	router := NewRouter(NewHandler(svc, "test"), tm, users, mwCfg)
	return &testServer{handler: router.Handler(), tokens: tokens}
}

func noLimit() MiddlewareConfig {
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return cfg
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, as int64, body string) (int, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if as != 0 {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code, env
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, noLimit())

	code, env := s.do(t, http.MethodGet, "/api/v1/health/live", 0, "")
	if code != http.StatusOK || env.Status != "success" {
		t.Fatalf("live = %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/health/ready", 0, "")
	if code != http.StatusOK {
		t.Fatalf("ready = %d", code)
	}
	var stats profile.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil || stats.Users != 4 || stats.Admins != 1 {
		t.Errorf("stats = %+v, %v", stats, err)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "usercenter_api_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, noLimit())

	for _, path := range []string{"/api/v1/users/current", "/api/v1/users/match", "/api/v1/users/search/tags?tags=go"} {
		code, env := s.do(t, http.MethodGet, path, 0, "")
		if code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != apperrors.CodeNotLogin {
			t.Errorf("%s = %d %+v", path, code, env.Error)
		}
	}
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t, noLimit())

	code, env := s.do(t, http.MethodGet, "/api/v1/users/current", 2, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var u models.SafeUser
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatal(err)
	}
	if u.ID != 2 || u.UserAccount != "alice" || u.Email != "alice@example.com" {
		t.Errorf("user = %+v", u)
	}
	if strings.Contains(string(env.Data), "is_delete") {
		t.Error("soft-delete flag exposed")
	}
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name     string
		as       int64
		body     string
		wantCode int
		wantErr  string
	}{
		{"plain update", 2, `{"id":"2","username":"Alice"}`, http.StatusOK, ""},
		{"tag update", 2, `{"id":"2","tags":"[\"go\"]"}`, http.StatusOK, ""},
		{"duplicate tags", 2, `{"id":"2","tags":"[\"go\",\"rust\"]"}`, http.StatusConflict, apperrors.CodeDuplicate},
		{"other user", 2, `{"id":"3","username":"x"}`, http.StatusForbidden, apperrors.CodeNoAuth},
		{"admin other user", 1, `{"id":"3","phone":"555"}`, http.StatusOK, ""},
		{"admin missing user", 1, `{"id":"99","phone":"555"}`, http.StatusNotFound, apperrors.CodeNotFound},
		{"soft delete", 2, `{"id":"2","username":"x","is_delete":true}`, http.StatusBadRequest, apperrors.CodeValidation},
		{"bad id", 2, `{"id":"abc","username":"x"}`, http.StatusBadRequest, apperrors.CodeValidation},
		{"malformed json", 2, `{"id":`, http.StatusBadRequest, apperrors.CodeValidation},
		{"numeric id rejected", 2, `{"id":2,"username":"x"}`, http.StatusBadRequest, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, noLimit())
			code, env := s.do(t, http.MethodPost, "/api/v1/users/update", tt.as, tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.wantCode, env.Error)
			}
			if tt.wantErr == "" {
				var res models.UpdateResult
				if err := json.Unmarshal(env.Data, &res); err != nil || res.RowsAffected != 1 {
					t.Errorf("result = %+v, %v", res, err)
				}
				return
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantErr)
			}
		})
	}
}

func TestUpdateUser_ValidationDetails(t *testing.T) {
	s := newTestServer(t, noLimit())
	code, env := s.do(t, http.MethodPost, "/api/v1/users/update", 2, `{"id":"2","username":"x","gender":"robot"}`)
	if code != http.StatusBadRequest || env.Error == nil {
		t.Fatalf("status = %d", code)
	}
	if _, ok := env.Error.Details["fields"]; !ok {
		t.Errorf("details = %v", env.Error.Details)
	}
}

func TestUpdateUser_DailyTagQuota(t *testing.T) {
	s := newTestServer(t, noLimit())

	for i := 1; i <= 5; i++ {
		body := fmt.Sprintf(`{"id":"2","tags":"[\"t%d\"]"}`, i)
		if code, env := s.do(t, http.MethodPost, "/api/v1/users/update", 2, body); code != http.StatusOK {
			t.Fatalf("update %d = %d %+v", i, code, env.Error)
		}
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/users/update", 2, `{"id":"2","tags":"[\"t6\"]"}`)
	if code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != apperrors.CodeQuota {
		t.Fatalf("6th update = %d %+v", code, env.Error)
	}
}

func TestMatchUsers(t *testing.T) {
	s := newTestServer(t, noLimit())

	code, env := s.do(t, http.MethodGet, "/api/v1/users/match?num=2", 2, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d %+v", code, env.Error)
	}
	var entries []models.MatchEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].User.UserAccount != "bob" || entries[1].User.UserAccount != "carol" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].Distance != 1 || entries[1].Distance != 2 {
		t.Errorf("distances = %d, %d", entries[0].Distance, entries[1].Distance)
	}

	for _, bad := range []string{"0", "-1", "x"} {
		code, env := s.do(t, http.MethodGet, "/api/v1/users/match?num="+bad, 2, "")
		if code != http.StatusBadRequest || env.Error.Code != apperrors.CodeValidation {
			t.Errorf("num=%s = %d", bad, code)
		}
	}
}

func TestSearchByTags(t *testing.T) {
	s := newTestServer(t, noLimit())

	code, env := s.do(t, http.MethodGet, "/api/v1/users/search/tags?tags=zig,%20python", 2, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var users []models.SafeUser
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].ID != 3 || users[1].ID != 4 {
		t.Errorf("users = %+v", users)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/users/search/tags?tags=", 2, "")
	if code != http.StatusBadRequest || env.Error.Code != apperrors.CodeValidation {
		t.Errorf("empty tags = %d", code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, noLimit())
	code, env := s.do(t, http.MethodGet, "/api/v1/nope", 0, "")
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != apperrors.CodeNotFound {
		t.Errorf("unknown route = %d %+v", code, env.Error)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if code, _ := s.do(t, http.MethodGet, "/api/v1/users/current", 2, ""); code != http.StatusOK {
			t.Fatalf("request %d = %d", i+1, code)
		}
	}
	code, env := s.do(t, http.MethodGet, "/api/v1/users/current", 2, "")
	if code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != apperrors.CodeRateLimit {
		t.Errorf("limited request = %d %+v", code, env.Error)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}

func TestMiddlewareConfigFrom(t *testing.T) {
	cfg := MiddlewareConfigFrom(&config.SecurityConfig{
		CORSOrigins:       []string{"https://app.example.com"},
		RateLimitReqs:     7,
		RateLimitDisabled: true,
	})
	if cfg.RateLimitRequests != 7 || cfg.RateLimitWindow != time.Minute || !cfg.RateLimitDisabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
}
