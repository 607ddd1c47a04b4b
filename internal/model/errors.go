package model

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map these to HTTP statuses; nothing in the core
// swallows or retries them.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("service name already exists")
	ErrSlotTaken          = errors.New("slot already booked")
	ErrServiceInactive    = errors.New("service is inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed input: an empty required field, a
// malformed phone number, or an inverted time range. Always recoverable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
