package errors

import "errors"

var (
	ErrNotFound = errors.New("vehicle not found")

	ErrInvalidID = errors.New("invalid vehicle ID format")

	ErrHasActiveBookings = errors.New("vehicle has blocking bookings")
)
