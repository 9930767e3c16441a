package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a state transition is rejected because the
	// row is already in a terminal status.
	ErrConflict = errors.New("status conflict")
)
