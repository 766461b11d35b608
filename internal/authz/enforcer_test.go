// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package authz

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/models"
)

func newTestAuthorizer(t *testing.T, cached bool) *Authorizer {
	t.Helper()
	a, err := New(&config.CasbinConfig{CacheEnabled: cached, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestAuthorizer_Update(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	alice := &models.User{ID: 2, Role: models.RoleNormal}
	unknownRole := &models.User{ID: 3, Role: "guest"}

	tests := []struct {
		name   string
		actor  *models.User
		target int64
		want   bool
	}{
		{"admin edits other", admin, 2, true},
		{"admin edits self", admin, 1, true},
		{"user edits self", alice, 2, true},
		{"user edits other", alice, 1, false},
		{"unknown role edits self", unknownRole, 3, false},
		{"nil actor", nil, 2, false},
	}

	for _, cached := range []bool{false, true} {
		a := newTestAuthorizer(t, cached)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := a.CanUpdateProfile(tt.actor, tt.target)
				if err != nil {
					t.Fatalf("CanUpdateProfile() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("CanUpdateProfile() = %v, want %v (cached=%v)", got, tt.want, cached)
				}
			})
		}
	}
}

func TestAuthorizer_MatchAndSearch(t *testing.T) {
	a := newTestAuthorizer(t, false)
	alice := &models.User{ID: 2, Role: models.RoleNormal}

	for _, action := range []string{ActionMatch, ActionSearch} {
		ok, err := a.Allow(alice, 0, ObjectProfile, action)
		if err != nil || !ok {
			t.Errorf("Allow(%s) = %v, %v; want true", action, ok, err)
		}
	}
	if ok, _ := a.Allow(alice, 0, ObjectProfile, "delete"); ok {
		t.Error("Allow(delete) = true, want false")
	}
}

func TestAuthorizer_CachesDecisions(t *testing.T) {
	a := newTestAuthorizer(t, true)
	alice := &models.User{ID: 2, Role: models.RoleNormal}

	for range 3 {
		if _, err := a.CanUpdateProfile(alice, 2); err != nil {
			t.Fatal(err)
		}
	}
	if n := a.cache.len(); n != 1 {
		t.Errorf("cache entries = %d, want 1", n)
	}
}

func TestDecisionCache_Expiry(t *testing.T) {
	c := newDecisionCache(time.Minute)
	defer c.stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.set("k", true)
	if allowed, ok := c.get("k"); !ok || !allowed {
		t.Fatalf("get() = %v, %v", allowed, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("k"); ok {
		t.Error("expired decision still served")
	}

	c.stop() // idempotent
}

func TestNew_PolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(path, []byte("p, normal, profile, update, any\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := New(&config.CasbinConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ok, err := a.CanUpdateProfile(&models.User{ID: 2, Role: models.RoleNormal}, 9)
	if err != nil || !ok {
		t.Errorf("CanUpdateProfile() = %v, %v; want true from file policy", ok, err)
	}
	if len(a.Policy()) != 1 {
		t.Errorf("Policy() = %v", a.Policy())
	}
}

func TestEmbeddedPolicy_Loaded(t *testing.T) {
	a := newTestAuthorizer(t, false)
	if got := len(a.Policy()); got != 8 {
		t.Errorf("policy rules = %d, want 8", got)
	}
}
