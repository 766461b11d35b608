// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

// Package validation provides struct validation using go-playground/validator v10.
// It provides a thread-safe singleton validator instance with the custom
// validators used by profile update requests.
//
// Custom tags:
//   - snowflake_id: a decimal string holding a positive int64
//   - gender: empty, "male" or "female"
//
// Example usage:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr // errors.Is(verr, apperrors.ErrValidation) holds
//	}
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/usercenter/internal/apperrors"
	"github.com/tomtom215/usercenter/internal/models"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError represents a single field validation error.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   any
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "256" for "max=256").
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the actual value that failed validation.
func (e *ValidationError) Value() any {
	return e.value
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	return e.message
}

// RequestValidationError collects the field errors of one validation run.
// It unwraps to apperrors.ErrValidation.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements the error interface, returning a combined error message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return apperrors.ErrValidation.Error()
	}

	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return apperrors.ErrValidation.Error() + ": " + strings.Join(messages, "; ")
}

// Unwrap lets callers match the validation category with errors.Is.
func (ve *RequestValidationError) Unwrap() error {
	return apperrors.ErrValidation
}

// Details returns per-field information for API error payloads.
func (ve *RequestValidationError) Details() map[string]any {
	fields := make([]map[string]any, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = map[string]any{
			"field":   err.field,
			"tag":     err.tag,
			"message": err.message,
		}
	}
	return map[string]any{"fields": fields}
}

// GetValidator returns the singleton validator instance.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("snowflake_id", validateSnowflakeID)
		_ = validate.RegisterValidation("gender", validateGender)
	})

	return validate
}

// validateSnowflakeID accepts decimal strings holding a positive int64.
func validateSnowflakeID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || strings.TrimSpace(s) != s || strings.HasPrefix(s, "+") {
		return false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return err == nil && id > 0
}

// validateGender accepts the empty string or one of the recognized values.
func validateGender(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", models.GenderMale, models.GenderFemale:
		return true
	default:
		return false
	}
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *RequestValidationError if validation fails.
func ValidateStruct(s any) *RequestValidationError {
	return convert(GetValidator().Struct(s), "")
}

// ValidateVar validates a single value against tag. name labels the value in
// error messages.
func ValidateVar(value any, tag, name string) *RequestValidationError {
	return convert(GetValidator().Var(value, tag), name)
}

func convert(err error, name string) *RequestValidationError {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		field := fieldErr.Field()
		if field == "" {
			field = name
		}
		fieldErrors[i] = ValidationError{
			field:   field,
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr, field),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required":     "%s is required",
	"email":        "%s must be a valid email address",
	"snowflake_id": "%s must be a positive integer identifier",
	"gender":       "%s must be one of: " + models.GenderMale + " " + models.GenderFemale,
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError, field string) string {
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
