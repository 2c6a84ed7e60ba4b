// Package rental holds the availability, pricing and booking status rules.
// Everything here is pure: callers load vehicles and bookings, pass them in
// and persist the results themselves.
package rental

import (
	"carhub/pkg/model"
	"time"
)

// Window is a requested rental period. Occupancy is measured in whole UTC
// calendar days, both ends included.
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

func NewWindow(start, end time.Time) (Window, error) {
	if !end.After(start) {
		return Window{}, &InvalidRangeError{Start: start, End: end}
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

// FirstDay and LastDay are the inclusive calendar-day bounds of the window.
func (w Window) FirstDay() time.Time {
	return calendarDay(w.Start)
}

func (w Window) LastDay() time.Time {
	return calendarDay(w.End)
}

type VehicleAvailability struct {
	VehicleID            string     `json:"vehicle_id"`
	Available            bool       `json:"available"`
	Reason               string     `json:"reason,omitempty"`
	ConflictingBookingID string     `json:"conflicting_booking_id,omitempty"`
	ConflictStart        *time.Time `json:"conflict_start,omitempty"`
	ConflictEnd          *time.Time `json:"conflict_end,omitempty"`
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share at least
// one UTC calendar day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !calendarDay(aStart).After(calendarDay(bEnd)) &&
		!calendarDay(bStart).After(calendarDay(aEnd))
}

// Blocks reports whether a booking in the given status occupies its dates.
func Blocks(status string) bool {
	switch status {
	case model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusActive:
		return true
	default:
		return false
	}
}

// FirstConflict returns the first blocking booking overlapping w, or nil.
// Bookings of other vehicles are ignored when vehicleID is not empty.
func FirstConflict(vehicleID string, bookings []*model.Booking, w Window) *model.Booking {
	for _, b := range bookings {
		if b == nil || !Blocks(b.Status) {
			continue
		}
		if vehicleID != "" && b.VehicleID != vehicleID {
			continue
		}
		if Overlaps(b.StartDate, b.EndDate, w.Start, w.End) {
			return b
		}
	}
	return nil
}

// CheckVehicle decides whether one vehicle can be rented for w given its bookings.
func CheckVehicle(vehicle *model.Vehicle, bookings []*model.Booking, w Window) VehicleAvailability {
	result := VehicleAvailability{VehicleID: vehicle.ID}

	if !vehicle.Rentable() {
		result.Reason = "vehicle is not offered for rental"
		return result
	}
	if vehicle.RentalPrice == nil {
		result.Reason = "vehicle has no daily rental price"
		return result
	}

	if conflict := FirstConflict(vehicle.ID, bookings, w); conflict != nil {
		start, end := conflict.StartDate.UTC(), conflict.EndDate.UTC()
		result.Reason = "overlaps an existing " + conflict.Status + " booking"
		result.ConflictingBookingID = conflict.ID
		result.ConflictStart = &start
		result.ConflictEnd = &end
		return result
	}

	result.Available = true
	return result
}

// AvailableVehicles returns the rentable vehicles with no blocking booking in w,
// preserving the input order.
func AvailableVehicles(vehicles []*model.Vehicle, bookings []*model.Booking, w Window) []*model.Vehicle {
	byVehicle := make(map[string][]*model.Booking, len(bookings))
	for _, b := range bookings {
		if b == nil {
			continue
		}
		byVehicle[b.VehicleID] = append(byVehicle[b.VehicleID], b)
	}

	available := make([]*model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v == nil {
			continue
		}
		if CheckVehicle(v, byVehicle[v.ID], w).Available {
			available = append(available, v)
		}
	}
	return available
}
