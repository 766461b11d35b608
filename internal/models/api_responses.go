// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
// Status is "success" with Data populated, or "error" with Error populated.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a structured error. Code is one of the stable codes from
// internal/apperrors (VALIDATION_ERROR, NO_AUTH, QUOTA_EXCEEDED, ...).
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MatchEntry is one ranked match returned by the match endpoint.
type MatchEntry struct {
	Distance int      `json:"distance"`
	User     SafeUser `json:"user"`
}

// UpdateResult is returned by the update endpoint.
type UpdateResult struct {
	RowsAffected int64 `json:"rows_affected"`
}

// HealthStatus is returned by the liveness endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}
