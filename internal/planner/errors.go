package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a required field is missing or a value is out of range
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an identifier does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness rule would be violated
	ErrConflict = errors.New("conflict")
	// ErrTransition is returned for an illegal brief status move
	ErrTransition = fmt.Errorf("%w: illegal status transition", ErrValidation)
	// ErrAdapter is returned when the discovery adapter cannot be reached or is misconfigured
	ErrAdapter = errors.New("discovery adapter failed")
	// ErrNoProvider is returned when no AI provider is configured
	ErrNoProvider = fmt.Errorf("%w: no AI provider configured", ErrAdapter)
	// ErrStorage is returned when the persistent store fails
	ErrStorage = errors.New("storage failure")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr re-surfaces a storage error at the service boundary.
// Not-found and conflict keep their identity; everything else becomes ErrStorage.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}
