package rental

import "carhub/pkg/model"

// active is the pick-up state: the customer has the car. It is optional,
// a confirmed booking may also be completed directly.
var transitions = map[string][]string{
	model.BookingStatusPending:   {model.BookingStatusConfirmed, model.BookingStatusCancelled},
	model.BookingStatusConfirmed: {model.BookingStatusActive, model.BookingStatusCompleted, model.BookingStatusCancelled},
	model.BookingStatusActive:    {model.BookingStatusCompleted},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status.
func Transition(from, to string) (string, error) {
	if !CanTransition(from, to) {
		return from, &InvalidTransitionError{From: from, To: to}
	}
	return to, nil
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// InitialStatus is the status a booking is persisted with for its channel.
// Public bookings start pending and are confirmed right after insertion.
func InitialStatus(channel string) string {
	if channel == model.ChannelReseller {
		return model.BookingStatusConfirmed
	}
	return model.BookingStatusPending
}
