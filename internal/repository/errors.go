package repository

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail is returned when the email uniqueness constraint rejects an insert.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
	// ErrPreconditionFailed is returned when a conditional update matched no row.
	ErrPreconditionFailed = errors.New("repository: precondition failed")
)

// ValidID reports whether id has the shape of a stored identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
