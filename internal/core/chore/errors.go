package chore

import "errors"

var (
	// ErrNotFound is returned when no chore with the requested id exists in the
	// store the operation targets.
	ErrNotFound = errors.New("chore not found")

	// ErrInvalidTransition is returned when the requested edge is not in the
	// transition graph or the acting role does not own it.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidInput is returned for malformed requests: empty names, unknown
	// statuses or roles, and successor links that would form a cycle.
	ErrInvalidInput = errors.New("invalid input")
)
