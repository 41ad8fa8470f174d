// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("poll not found")
	ErrPollClosed    = errors.New("poll is closed for voting")
	ErrInvalidOption = errors.New("option does not belong to poll")
	ErrForbidden     = errors.New("insufficient role")
	// ErrConflict is returned by storage when a concurrent write won the
	// compare-and-swap. Callers may retry.
	ErrConflict = errors.New("concurrent write conflict")
	// ErrVoteContention is returned once vote retries are exhausted.
	ErrVoteContention = fmt.Errorf("vote could not be recorded, try again: %w", ErrConflict)
)

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
