package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when an update would leave the submission
	// state machine, e.g. touching a completed or failed record.
	ErrInvalidTransition = errors.New("invalid status transition")
)
