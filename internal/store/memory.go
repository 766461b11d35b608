// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/usercenter/internal/models"
)

// Memory is an in-process UserStore.
type Memory struct {
	mu    sync.RWMutex
	users map[int64]models.User
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{users: make(map[int64]models.User)}
}

// FindByID implements UserStore.
func (m *Memory) FindByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok || u.IsDelete {
		return nil, notFound(id)
	}
	return &u, nil
}

// UpdateByID implements UserStore.
func (m *Memory) UpdateByID(_ context.Context, patch models.UserPatch) (int64, error) {
	if patch.Empty() {
		return 0, emptyPatch(patch.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[patch.ID]
	if !ok || u.IsDelete {
		return 0, nil
	}
	apply(&u, &patch)
	m.users[patch.ID] = u
	return 1, nil
}

func apply(u *models.User, p *models.UserPatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Username, p.Username)
	set(&u.AvatarURL, p.AvatarURL)
	set(&u.Gender, p.Gender)
	set(&u.Phone, p.Phone)
	set(&u.Email, p.Email)
	set(&u.Tags, p.Tags)
	set(&u.Profile, p.Profile)
}

// CountWhere implements UserStore.
func (m *Memory) CountWhere(_ context.Context, f Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for i := range m.users {
		u := m.users[i]
		if !u.IsDelete && f.matches(&u) {
			n++
		}
	}
	return n, nil
}

func (f Filter) matches(u *models.User) bool {
	switch {
	case f.ID != 0 && u.ID != f.ID:
		return false
	case f.UserAccount != "" && u.UserAccount != f.UserAccount:
		return false
	case f.Role != "" && u.Role != f.Role:
		return false
	case f.HasTags && strings.TrimSpace(u.Tags) == "":
		return false
	}
	return true
}

// ListAll implements UserStore.
func (m *Memory) ListAll(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		if !u.IsDelete {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Insert implements UserStore.
func (m *Memory) Insert(_ context.Context, u *models.User) error {
	if u.ID <= 0 {
		return fmt.Errorf("insert user: id must be positive, got %d", u.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.ID]; exists {
		return fmt.Errorf("insert user: id %d already exists", u.ID)
	}
	rec := *u
	if rec.Role == "" {
		rec.Role = models.RoleNormal
	}
	if rec.CreateTime.IsZero() {
		rec.CreateTime = time.Now()
	}
	m.users[u.ID] = rec
	return nil
}

// Close implements io.Closer.
func (m *Memory) Close() error {
	return nil
}
