// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package profile implements the user-facing profile operations: validated
// updates (routed to a plain store write or the tag quota guard), tag-based
// matching and tag search.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/authz"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/validation"
)

// Decision is where an accepted update goes.
type Decision int

const (
	// RoutePlainUpdate writes the update straight to the store.
	RoutePlainUpdate Decision = iota + 1

	// RouteTagGuard sends the update through the daily tag quota.
	RouteTagGuard
)

func (d Decision) String() string {
	switch d {
	case RoutePlainUpdate:
		return "plain"
	case RouteTagGuard:
		return "tag_guard"
	default:
		return "rejected"
	}
}

// Authorizer decides whether an actor may act on a profile.
type Authorizer interface {
	Allow(actor *models.User, ownerID int64, object, action string) (bool, error)
}

// UserFinder loads users by id.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Validator checks update requests before anything is written.
type Validator struct {
	users UserFinder
	authz Authorizer
}

// NewValidator creates a Validator.
func NewValidator(users UserFinder, az Authorizer) *Validator {
	return &Validator{users: users, authz: az}
}

// Validate runs the update checks in order and stops at the first failure.
// On success it returns the route and the currently stored target.
//
//  1. the soft-delete flag must not be set
//  2. the target id must be a positive integer
//  3. at least one of username, phone, email, tags must be non-empty
//  4. field formats (gender, lengths) must be valid
//  5. the caller must be an admin or the target itself
//  6. the target must exist
//  7. new tags identical to the stored tags are a duplicate submission;
//     changed tags route to the guard
//  8. everything else is a plain update
func (v *Validator) Validate(ctx context.Context, login *models.User, req *models.UpdateRequest) (Decision, *models.User, error) {
	if req == nil {
		return 0, nil, fmt.Errorf("%w: empty request", apperrors.ErrValidation)
	}

	if req.IsDelete != nil {
		return 0, nil, fmt.Errorf("%w: is_delete cannot be changed here", apperrors.ErrValidation)
	}

	if verr := validation.ValidateVar(req.ID, "required,snowflake_id", "id"); verr != nil {
		return 0, nil, verr
	}
	targetID, err := strconv.ParseInt(req.ID, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: id %q", apperrors.ErrValidation, req.ID)
	}

	if !req.HasMutableField() {
		return 0, nil, fmt.Errorf("%w: nothing to update", apperrors.ErrValidation)
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		return 0, nil, verr
	}

	if login == nil {
		return 0, nil, fmt.Errorf("%w: no acting user", apperrors.ErrUnauthenticated)
	}
	allowed, err := v.authz.Allow(login, targetID, authz.ObjectProfile, authz.ActionUpdate)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: authorization: %v", apperrors.ErrStorage, err)
	}
	if !allowed {
		return 0, nil, fmt.Errorf("%w: user %d may not edit user %d", apperrors.ErrUnauthorized, login.ID, targetID)
	}

	current, err := v.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("%w: load user %d: %v", apperrors.ErrStorage, targetID, err)
	}

	if req.Tags != nil && *req.Tags != "" {
		if *req.Tags == current.Tags {
			return 0, current, fmt.Errorf("%w: tags unchanged", apperrors.ErrDuplicateSubmission)
		}
		return RouteTagGuard, current, nil
	}

	return RoutePlainUpdate, current, nil
}
