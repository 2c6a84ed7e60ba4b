package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a compare-and-set status update lost a race.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrLockHeld = errors.New("vehicle booking lock is held by another request")
)
