// Package errors provides structured application errors with a small
// closed taxonomy used across the integration layer.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeConfig represents missing or invalid provider configuration
	ErrTypeConfig ErrorType = "config"
	// ErrTypeValidation represents request validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeTransient represents provider failures worth retrying
	ErrTypeTransient ErrorType = "transient"
	// ErrTypePermanent represents provider failures not worth retrying
	ErrTypePermanent ErrorType = "permanent"
	// ErrTypeRateLimit represents a rejected rate-limited request
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeFieldMapping represents friendly names with no provider field ID
	ErrTypeFieldMapping ErrorType = "field_mapping"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`

	// MissingFields carries the friendly names that could not be resolved
	// for field-mapping errors. Calling code degrades gracefully by
	// proceeding without these fields.
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}

	if len(e.MissingFields) > 0 {
		parts = append(parts, fmt.Sprintf("missing=[%s]", strings.Join(e.MissingFields, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// TransientError creates a new transient provider error
func TransientError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeTransient,
		Message: msg,
		Cause:   cause,
	}
}

// PermanentError creates a new permanent provider error
func PermanentError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypePermanent,
		Message: msg,
		Cause:   cause,
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeRateLimit,
		Message: msg,
	}
}

// FieldMappingError creates an error carrying the friendly names that
// could not be resolved to provider field IDs.
func FieldMappingError(missing []string) *AppError {
	return &AppError{
		Type:          ErrTypeFieldMapping,
		Message:       fmt.Sprintf("unresolved custom fields: %s", strings.Join(missing, ", ")),
		MissingFields: missing,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// AsAppError extracts an AppError from err, if present
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
