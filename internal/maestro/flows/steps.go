package flows

import (
	"fmt"
	"time"

	maestro "carhub/internal/maestro/core"
	"carhub/internal/maestro/types"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/model"

	"github.com/google/uuid"
)

const (
	WINDOW             = "window"
	REQUEST            = "request"
	IDEMPOTENCY_KEY    = "idempotency_key"
	AVAILABLE_VEHICLES = "available_vehicles"

	OUT_VEHICLES = "vehicles"
	OUT_COUNT    = "count"
	OUT_VEHICLE  = "vehicle"
	OUT_RESELLER = "reseller"
	OUT_QUOTE    = "quote"
	OUT_BOOKING  = "booking"
)

type window struct {
	Start time.Time
	End   time.Time
}

func storeWindow(ctx *maestro.MaestroContext, in types.WindowInput) (window, error) {
	start, end, err := in.Window()
	if err != nil {
		return window{}, err
	}
	w := window{Start: start, End: end}
	maestro.Store(ctx, WINDOW, w)
	return w, nil
}

func storeIdempotencyKey(ctx *maestro.MaestroContext, key string) {
	if maestro.IsMissing(key) {
		key = uuid.NewString()
	}
	maestro.Store(ctx, IDEMPOTENCY_KEY, key)
}

func ParseWindowInput(ctx *maestro.MaestroContext) error {
	in, err := types.Decode[types.FleetAvailabilityInput](ctx.Input)
	if err != nil {
		return err
	}
	_, err = storeWindow(ctx, in.WindowInput)
	return err
}

func ParsePublicRentalInput(ctx *maestro.MaestroContext) error {
	in, err := types.Decode[types.PublicRentalInput](ctx.Input)
	if err != nil {
		return err
	}
	w, err := storeWindow(ctx, in.WindowInput)
	if err != nil {
		return err
	}
	storeIdempotencyKey(ctx, in.IdempotencyKey)

	var req model.BookingRequest = &model.PublicBookingRequest{BookingDetails: bookingDetails(w, in)}
	maestro.Store(ctx, REQUEST, req)
	return nil
}

func ParseResellerBookingInput(ctx *maestro.MaestroContext) error {
	in, err := types.Decode[types.ResellerBookingInput](ctx.Input)
	if err != nil {
		return err
	}
	w, err := storeWindow(ctx, in.WindowInput)
	if err != nil {
		return err
	}
	storeIdempotencyKey(ctx, in.IdempotencyKey)

	var req model.BookingRequest = &model.ResellerBookingRequest{
		BookingDetails:     bookingDetails(w, &in.PublicRentalInput),
		ResellerID:         in.ResellerID,
		UpchargePercentage: in.UpchargePercentage,
	}
	maestro.Store(ctx, REQUEST, req)
	return nil
}

func bookingDetails(w window, in *types.PublicRentalInput) model.BookingDetails {
	customer := in.Customer
	return model.BookingDetails{
		VehicleID:     in.VehicleID,
		StartDate:     w.Start,
		EndDate:       w.End,
		PaymentMethod: in.PaymentMethod,
		Customer:      &customer,
	}
}

func LookupReseller(ctx *maestro.MaestroContext) error {
	req, err := maestro.Load[model.BookingRequest](ctx, REQUEST)
	if err != nil {
		return err
	}
	resellerReq, ok := req.(*model.ResellerBookingRequest)
	if !ok {
		return fmt.Errorf("reseller lookup needs a reseller request, got %s", req.Channel())
	}

	reseller, err := ctx.Client.Resellers.GetByID(ctx, resellerReq.ResellerID)
	if err != nil {
		return err
	}
	if !reseller.Active {
		return apperrors.Forbidden("reseller account is not active")
	}
	ctx.Output[OUT_RESELLER] = reseller
	return nil
}

func FetchFleetAvailability(ctx *maestro.MaestroContext) error {
	w, err := maestro.Load[window](ctx, WINDOW)
	if err != nil {
		return err
	}
	vehicles, err := ctx.Client.Bookings.Availability(ctx, w.Start, w.End)
	if err != nil {
		return err
	}
	maestro.Store(ctx, AVAILABLE_VEHICLES, vehicles)
	return nil
}

func OrganizeFleetOutput(ctx *maestro.MaestroContext) error {
	vehicles, err := maestro.Load[[]model.Vehicle](ctx, AVAILABLE_VEHICLES)
	if err != nil {
		return err
	}
	ctx.Output[OUT_VEHICLES] = vehicles
	ctx.Output[OUT_COUNT] = len(vehicles)
	return nil
}

// SelectVehicle makes sure the requested vehicle is in the available fleet.
// When it is not, the per-vehicle check explains why.
func SelectVehicle(ctx *maestro.MaestroContext) error {
	req, err := maestro.Load[model.BookingRequest](ctx, REQUEST)
	if err != nil {
		return err
	}
	vehicles, err := maestro.Load[[]model.Vehicle](ctx, AVAILABLE_VEHICLES)
	if err != nil {
		return err
	}

	vehicleID := req.Details().VehicleID
	for i := range vehicles {
		if vehicles[i].ID == vehicleID {
			ctx.Output[OUT_VEHICLE] = vehicles[i]
			return nil
		}
	}

	w, err := maestro.Load[window](ctx, WINDOW)
	if err != nil {
		return err
	}
	check, err := ctx.Client.Bookings.VehicleAvailability(ctx, vehicleID, w.Start, w.End)
	if err != nil {
		return err
	}

	details := map[string]any{
		"vehicle_id": vehicleID,
		"reason":     check.Reason,
	}
	if check.ConflictingBookingID != "" {
		details["conflicting_booking_id"] = check.ConflictingBookingID
	}
	return apperrors.Conflict("vehicle is not available for the requested window").WithDetails(details)
}

func QuoteBooking(ctx *maestro.MaestroContext) error {
	req, err := maestro.Load[model.BookingRequest](ctx, REQUEST)
	if err != nil {
		return err
	}

	var quote *model.Quote
	switch r := req.(type) {
	case *model.PublicBookingRequest:
		quote, err = ctx.Client.Bookings.QuotePublic(ctx, r)
	case *model.ResellerBookingRequest:
		quote, err = ctx.Client.Bookings.QuoteReseller(ctx, r)
	default:
		return fmt.Errorf("unsupported booking request %T", req)
	}
	if err != nil {
		return err
	}
	ctx.Output[OUT_QUOTE] = quote
	return nil
}

func SubmitBooking(ctx *maestro.MaestroContext) error {
	req, err := maestro.Load[model.BookingRequest](ctx, REQUEST)
	if err != nil {
		return err
	}
	key, err := maestro.Load[string](ctx, IDEMPOTENCY_KEY)
	if err != nil {
		return err
	}

	var booking *model.Booking
	switch r := req.(type) {
	case *model.PublicBookingRequest:
		booking, err = ctx.Client.Bookings.CreatePublic(ctx, r, key)
	case *model.ResellerBookingRequest:
		booking, err = ctx.Client.Bookings.CreateReseller(ctx, r, key)
	default:
		return fmt.Errorf("unsupported booking request %T", req)
	}
	if err != nil {
		return err
	}

	ctx.Log.Info("booking submitted", "booking_id", booking.ID, "channel", req.Channel(), "status", booking.Status)
	ctx.Output[OUT_BOOKING] = booking
	return nil
}
