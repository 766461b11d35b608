// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/authz"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/metrics"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/similarity"
	"github.com/tomtom215/usercenter/internal/store"
	"github.com/tomtom215/usercenter/internal/tags"
)

// TagGuard applies rate-limited tag mutations.
type TagGuard interface {
	Apply(ctx context.Context, userID int64, patch models.UserPatch) (int64, error)
}

// Config bounds match requests.
type Config struct {
	DefaultK int
	MaxK     int
}

// Service implements the profile operations.
type Service struct {
	users     store.UserStore
	validator *Validator
	authz     Authorizer
	guard     TagGuard
	ranker    *similarity.Ranker
	cfg       Config
}

// NewService wires a Service.
func NewService(users store.UserStore, az Authorizer, guard TagGuard, ranker *similarity.Ranker, cfg Config) *Service {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 10
	}
	if cfg.MaxK < cfg.DefaultK {
		cfg.MaxK = cfg.DefaultK
	}
	return &Service{
		users:     users,
		validator: NewValidator(users, az),
		authz:     az,
		guard:     guard,
		ranker:    ranker,
		cfg:       cfg,
	}
}

// UpdateProfile validates req on behalf of login and applies it. It returns
// the number of rows written.
func (s *Service) UpdateProfile(ctx context.Context, login *models.User, req *models.UpdateRequest) (rows int64, err error) {
	route := Decision(0)
	defer func() {
		code := "OK"
		if err != nil {
			code = apperrors.Code(err)
		}
		metrics.RecordProfileUpdate(route.String(), code)
	}()

	route, current, err := s.validator.Validate(ctx, login, req)
	if err != nil {
		return 0, err
	}
	patch := req.Patch(current.ID)

	log := logging.CtxComponent(ctx, "profile")
	switch route {
	case RouteTagGuard:
		rows, err = s.guard.Apply(ctx, current.ID, patch)
	default:
		rows, err = s.plainUpdate(ctx, patch)
	}
	if err != nil {
		log.Warn().Err(err).Int64("target_id", current.ID).Str("route", route.String()).Msg("Profile update failed")
		return 0, err
	}

	log.Info().Int64("target_id", current.ID).Str("route", route.String()).Int64("rows", rows).Msg("Profile updated")
	return rows, nil
}

func (s *Service) plainUpdate(ctx context.Context, patch models.UserPatch) (int64, error) {
	rows, err := s.users.UpdateByID(ctx, patch)
	if err != nil {
		if errors.Is(err, apperrors.ErrStorage) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: update user %d: %v", apperrors.ErrStorage, patch.ID, err)
	}
	return rows, nil
}

// Match returns up to k users whose tags are closest to login's. A k of zero
// uses the configured default; larger values are capped.
func (s *Service) Match(ctx context.Context, login *models.User, k int) ([]similarity.Match, error) {
	if login == nil {
		return nil, fmt.Errorf("%w: no acting user", apperrors.ErrUnauthenticated)
	}
	switch {
	case k < 0:
		return nil, fmt.Errorf("%w: num must not be negative", apperrors.ErrValidation)
	case k == 0:
		k = s.cfg.DefaultK
	case k > s.cfg.MaxK:
		k = s.cfg.MaxK
	}

	if err := s.require(login, authz.ActionMatch); err != nil {
		return nil, err
	}

	population, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}
	return s.ranker.Rank(ctx, login, population, k)
}

// SearchByTags returns every user holding at least one of wanted.
func (s *Service) SearchByTags(ctx context.Context, login *models.User, wanted []string) ([]models.User, error) {
	if login == nil {
		return nil, fmt.Errorf("%w: no acting user", apperrors.ErrUnauthenticated)
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("%w: at least one tag is required", apperrors.ErrValidation)
	}
	if err := s.require(login, authz.ActionSearch); err != nil {
		return nil, err
	}

	population, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, storageError("list users", err)
	}

	found := make([]models.User, 0)
	for i := range population {
		if tags.ContainsAny(population[i].Tags, wanted) {
			found = append(found, population[i])
		}
	}
	return found, nil
}

// Current returns the stored record of login.
func (s *Service) Current(ctx context.Context, login *models.User) (*models.User, error) {
	if login == nil {
		return nil, fmt.Errorf("%w: no acting user", apperrors.ErrUnauthenticated)
	}
	u, err := s.users.FindByID(ctx, login.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, storageError("load user "+strconv.FormatInt(login.ID, 10), err)
	}
	return u, nil
}

// Stats summarizes the user population.
type Stats struct {
	Users  int64 `json:"users"`
	Tagged int64 `json:"tagged"`
	Admins int64 `json:"admins"`
}

// Stats counts live, tagged and admin users.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Users, err = s.users.CountWhere(ctx, store.Filter{}); err != nil {
		return Stats{}, storageError("count users", err)
	}
	if st.Tagged, err = s.users.CountWhere(ctx, store.Filter{HasTags: true}); err != nil {
		return Stats{}, storageError("count tagged users", err)
	}
	if st.Admins, err = s.users.CountWhere(ctx, store.Filter{Role: models.RoleAdmin}); err != nil {
		return Stats{}, storageError("count admins", err)
	}
	return st, nil
}

func (s *Service) require(login *models.User, action string) error {
	ok, err := s.authz.Allow(login, login.ID, authz.ObjectProfile, action)
	if err != nil {
		return fmt.Errorf("%w: authorization: %v", apperrors.ErrStorage, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s not permitted for role %q", apperrors.ErrUnauthorized, action, login.Role)
	}
	return nil
}

func storageError(op string, err error) error {
	if errors.Is(err, apperrors.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStorage, op, err)
}
