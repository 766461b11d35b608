// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/logging"
	"github.com/tomtom215/usercenter/internal/models"
	"github.com/tomtom215/usercenter/internal/validation"
)

// sanitizeLogValue escapes control characters to prevent log injection.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope timed from start.
func respondSuccess(w http.ResponseWriter, start time.Time, data any) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError maps err onto its category code and HTTP status. Server-side
// failures are logged with detail but reported with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)
	message := err.Error()

	log := logging.CtxComponent(r.Context(), "api")
	if status >= http.StatusInternalServerError {
		log.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
		message = "internal error"
	} else {
		log.Debug().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("Request rejected")
	}

	apiErr := &models.APIError{Code: code, Message: message}
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr.Details = verr.Details()
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}
