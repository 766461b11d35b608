// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/identity"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/profile"
	"github.com/tomtom215/usercenter/internal/similarity"
	"github.com/tomtom215/usercenter/internal/tags"
)

// maxUpdateBody bounds the update request body.
const maxUpdateBody = 64 << 10

// ProfileService is the application layer behind the handlers.
type ProfileService interface {
	UpdateProfile(ctx context.Context, login *models.User, req *models.UpdateRequest) (int64, error)
	Match(ctx context.Context, login *models.User, k int) ([]similarity.Match, error)
	SearchByTags(ctx context.Context, login *models.User, wanted []string) ([]models.User, error)
	Current(ctx context.Context, login *models.User) (*models.User, error)
	Stats(ctx context.Context) (profile.Stats, error)
}

// Handler serves the HTTP endpoints.
type Handler struct {
	svc       ProfileService
	identity  identity.Provider
	version   string
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(svc ProfileService, version string) *Handler {
	return &Handler{svc: svc, version: version, startTime: time.Now()}
}

// HealthLive reports that the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, time.Now(), models.HealthStatus{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HealthReady reports whether the user store answers queries.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, start, stats)
}

// UpdateUser applies a profile update for the caller.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	login, err := h.identity.CurrentUser(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req models.UpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBody))
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: malformed body: %v", apperrors.ErrValidation, err))
		return
	}

	rows, err := h.svc.UpdateProfile(r.Context(), login, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, start, models.UpdateResult{RowsAffected: rows})
}

// MatchUsers returns the caller's closest users by tag distance.
func (h *Handler) MatchUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	login, err := h.identity.CurrentUser(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	k := 0
	if raw := r.URL.Query().Get("num"); raw != "" {
		if k, err = strconv.Atoi(raw); err != nil || k <= 0 {
			respondError(w, r, fmt.Errorf("%w: num must be a positive integer", apperrors.ErrValidation))
			return
		}
	}

	matches, err := h.svc.Match(r.Context(), login, k)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]models.MatchEntry, len(matches))
	for i := range matches {
		out[i] = models.MatchEntry{Distance: matches[i].Distance, User: matches[i].User.Safe()}
	}
	respondSuccess(w, start, out)
}

// SearchByTags returns users holding any of the comma separated tags.
func (h *Handler) SearchByTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	login, err := h.identity.CurrentUser(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var wanted []string
	for _, v := range r.URL.Query()["tags"] {
		wanted = append(wanted, tags.ParseList(v)...)
	}

	users, err := h.svc.SearchByTags(r.Context(), login, wanted)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, start, models.SafeUsers(users))
}

// CurrentUser returns the caller's stored profile.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	login, err := h.identity.CurrentUser(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.svc.Current(r.Context(), login)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, start, u.Safe())
}
