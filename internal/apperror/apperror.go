// Package apperror holds the error kinds shared by every aggregate.
// Packages declare their own sentinels in error.go and wrap one of these kinds,
// so callers can classify with errors.Is without knowing the package.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrStorage    = errors.New("storage failure")
)

// Validation builds a validation error carrying msg.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Forbidden builds a forbidden error carrying msg.
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// Storage wraps a backing store failure. Both ErrStorage and the driver
// error stay reachable through errors.Is / errors.As.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Kind returns the kind sentinel err belongs to. Unclassified errors are
// reported as storage failures since they surface as internal errors.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrForbidden):
		return ErrForbidden
	default:
		return ErrStorage
	}
}
