// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package apperrors defines the error categories shared by every layer.
//
// Errors are wrapped with fmt.Errorf("%w: ...", ErrX) and inspected with errors.Is.
// Code and HTTPStatus translate a wrapped error for the API layer.
package apperrors

import (
	"errors"
	"net/http"
)

// ErrValidation is returned for malformed, missing, or contradictory input.
var ErrValidation = errors.New("invalid request")

// ErrUnauthorized is returned when the caller may not perform the operation.
var ErrUnauthorized = errors.New("not authorized")

// ErrUnauthenticated is returned when no acting identity is present.
var ErrUnauthenticated = errors.New("not logged in")

// ErrNotFound is returned when the target user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateSubmission is returned when submitted tags equal the stored tags.
var ErrDuplicateSubmission = errors.New("tags unchanged")

// ErrQuotaExceeded is returned when the daily tag mutation cap is reached.
var ErrQuotaExceeded = errors.New("daily tag update limit reached")

// ErrRateLimited is returned when a client exceeds the HTTP request rate.
var ErrRateLimited = errors.New("too many requests")

// ErrStorage is returned when the store or shared cache fails.
var ErrStorage = errors.New("storage failure")

// Stable machine-readable codes.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNoAuth     = "NO_AUTH"
	CodeNotLogin   = "NOT_LOGGED_IN"
	CodeNotFound   = "NOT_FOUND"
	CodeDuplicate  = "DUPLICATE_SUBMISSION"
	CodeQuota      = "QUOTA_EXCEEDED"
	CodeRateLimit  = "TOO_MANY_REQUESTS"
	CodeSystem     = "SYSTEM_ERROR"
)

var categories = []struct {
	err    error
	code   string
	status int
}{
	{ErrValidation, CodeValidation, http.StatusBadRequest},
	{ErrUnauthenticated, CodeNotLogin, http.StatusUnauthorized},
	{ErrUnauthorized, CodeNoAuth, http.StatusForbidden},
	{ErrNotFound, CodeNotFound, http.StatusNotFound},
	{ErrDuplicateSubmission, CodeDuplicate, http.StatusConflict},
	{ErrQuotaExceeded, CodeQuota, http.StatusTooManyRequests},
	{ErrRateLimited, CodeRateLimit, http.StatusTooManyRequests},
	{ErrStorage, CodeSystem, http.StatusInternalServerError},
}

// Code returns the machine code for err. Unknown errors map to SYSTEM_ERROR.
func Code(err error) string {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeSystem
}

// HTTPStatus returns the HTTP status for err. Unknown errors map to 500.
func HTTPStatus(err error) int {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether err belongs to a category caused by the caller.
func IsClientError(err error) bool {
	return HTTPStatus(err) < http.StatusInternalServerError
}
