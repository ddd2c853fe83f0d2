// Package common defines shared constants and sentinel errors used across
// client and server layers of passvault. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")
	ErrorUnavailable  = errors.New("service unavailable")

	// Auth errors (invalid, tampered, expired or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Envelope errors: ciphertext failed authentication or decoding.
	ErrCorruptData = errors.New("corrupt or untrusted data")
)

// ValidationError reports a missing or malformed request field.
// It matches ErrorValidation via errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
