package repositories

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column would be violated.
	ErrDuplicate = errors.New("already exists")
)
