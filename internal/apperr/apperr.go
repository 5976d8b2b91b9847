// Package apperr holds the error taxonomy shared by the store, the
// notification pipeline and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before anything is persisted.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced user, team, task or record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an identity acting outside the teams it belongs to.
	ErrForbidden = errors.New("forbidden")
)

// Validation returns an error wrapping ErrValidation with a detail message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound for the given entity and id.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

// Forbidden returns an error wrapping ErrForbidden with a detail message.
func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
