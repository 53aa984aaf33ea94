package services

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix before retrying.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks a request that clashes with existing data.
	ErrConflict = errors.New("conflict")
	// ErrTooLarge marks an upload above the configured limit.
	ErrTooLarge = errors.New("payload too large")
)
