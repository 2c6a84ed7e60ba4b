package rental

import (
	"fmt"
	"time"
)

type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s must be after start %s",
		e.End.UTC().Format(time.RFC3339), e.Start.UTC().Format(time.RFC3339))
}

type InvalidQuoteInputError struct {
	Field  string
	Reason string
}

func (e *InvalidQuoteInputError) Error() string {
	return fmt.Sprintf("invalid quote input %s: %s", e.Field, e.Reason)
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// ConflictError means the requested window overlaps a blocking booking of the
// same vehicle. BookingID is empty when the conflicting booking is unknown,
// for example when another request holds the vehicle lock.
type ConflictError struct {
	VehicleID string
	BookingID string
	Start     time.Time
	End       time.Time
}

func (e *ConflictError) Error() string {
	if e.BookingID == "" {
		return fmt.Sprintf("vehicle %s is being booked by another request", e.VehicleID)
	}
	return fmt.Sprintf("vehicle %s is already booked from %s to %s (booking %s)",
		e.VehicleID, e.Start.UTC().Format(time.DateOnly), e.End.UTC().Format(time.DateOnly), e.BookingID)
}
