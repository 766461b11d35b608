// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package authz decides whether an acting user may perform an action on a
// profile. Decisions come from a Casbin model where each policy rule names a
// role, an object, an action and a scope: "any" grants the action on every
// profile, "self" only on the actor's own profile.
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/usercenter/internal/config"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects and actions understood by the policy.
const (
	ObjectProfile = "profile"

	ActionUpdate = "update"
	ActionRead   = "read"
	ActionMatch  = "match"
	ActionSearch = "search"
)

// Authorizer wraps a Casbin enforcer with a decision cache.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// New creates an Authorizer. A nil cfg uses the embedded model and policy with
// caching disabled.
func New(cfg *config.CasbinConfig) (*Authorizer, error) {
	if cfg == nil {
		cfg = &config.CasbinConfig{}
	}

	var m model.Model
	var err error
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	a := &Authorizer{enforcer: enforcer}
	if cfg.CacheEnabled {
		a.cache = newDecisionCache(cfg.CacheTTL)
	}
	return a, nil
}

// loadEmbeddedPolicy parses policy lines of the form "p, role, obj, act, scope".
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] != "p" || len(parts) != 5 {
			return fmt.Errorf("malformed policy line %q", line)
		}

		rule := make([]any, 0, 4)
		for _, p := range parts[1:] {
			rule = append(rule, p)
		}
		if _, err := enforcer.AddPolicy(rule...); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", rule, err)
		}
	}
	return nil
}

// Allow reports whether actor may perform action on object owned by ownerID.
func (a *Authorizer) Allow(actor *models.User, ownerID int64, object, action string) (bool, error) {
	if actor == nil {
		return false, nil
	}

	sub := strconv.FormatInt(actor.ID, 10)
	role := string(actor.Role)
	owner := strconv.FormatInt(ownerID, 10)
	key := decisionKey(sub, role, owner, object, action)

	if a.cache != nil {
		if allowed, ok := a.cache.get(key); ok {
			metrics.RecordAuthzDecision(allowed, true)
			return allowed, nil
		}
	}

	allowed, err := a.enforcer.Enforce(sub, role, owner, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	metrics.RecordAuthzDecision(allowed, false)

	if !allowed {
		logging.Debug().Int64("actor", actor.ID).Str("role", role).Int64("owner", ownerID).
			Str("object", object).Str("action", action).Msg("Authorization denied")
	}

	if a.cache != nil {
		a.cache.set(key, allowed)
	}
	return allowed, nil
}

// CanUpdateProfile reports whether actor may edit the profile of targetID.
func (a *Authorizer) CanUpdateProfile(actor *models.User, targetID int64) (bool, error) {
	return a.Allow(actor, targetID, ObjectProfile, ActionUpdate)
}

// Policy returns the loaded policy rules.
func (a *Authorizer) Policy() [][]string {
	//nolint:errcheck // GetPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := a.enforcer.GetPolicy()
	return policies
}

// Close stops the decision cache.
func (a *Authorizer) Close() {
	if a.cache != nil {
		a.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
