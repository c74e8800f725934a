package model

import (
	"errors"
	"fmt"
)

// Outcome classes surfaced to callers. Every error returned by the stores and
// the coordinator matches exactly one of these with errors.Is.
var (
	ErrNotFound   = errors.New("model: not found")
	ErrValidation = errors.New("model: validation failed")
	ErrTransport  = errors.New("model: transport failure")
)

var (
	ErrEmptyTitle      = fmt.Errorf("%w: task title is required", ErrValidation)
	ErrMissingCategory = fmt.Errorf("%w: task category is required", ErrValidation)
	ErrUnknownCategory = fmt.Errorf("%w: category does not exist", ErrValidation)
	ErrCategoryInUse   = fmt.Errorf("%w: category still has tasks", ErrValidation)
	ErrEmptyName       = fmt.Errorf("%w: category name is required", ErrValidation)
	ErrEmptyPatch      = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrInvalidPriority = fmt.Errorf("%w: invalid task priority", ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid task status", ErrValidation)
)

// Transport wraps a backing-store failure so callers can classify it.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
