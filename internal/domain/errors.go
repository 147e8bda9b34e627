package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateBooking    = errors.New("household already holds a booking for this slot")
	ErrCapacityExceeded    = errors.New("slot capacity exceeded")
	ErrTransientContention = errors.New("transient contention, retry later")
	ErrSlotUnavailable     = errors.New("slot is not available")
	ErrInvalidTransition   = errors.New("invalid booking status transition")
	ErrInsufficientFunds   = errors.New("insufficient balance")
	ErrHouseholdInactive   = errors.New("household is not active")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError reports malformed input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsRetryable reports whether err is a contention failure the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientContention)
}
