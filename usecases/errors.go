package usecases

import (
	"errors"
	"fmt"

	"home-energy/repositories"
)

var (
	// ErrNotFound is returned for unknown room, device or user ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks a state change older than the device's last
	// transition. It is logged and dropped, never returned to callers.
	ErrInvalidTransition = errors.New("stale state transition")

	// ErrPersistence wraps store failures.
	ErrPersistence = errors.New("persistence failure")

	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

func validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// storeErr maps repository errors onto the use case error taxonomy.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, what, err)
}
