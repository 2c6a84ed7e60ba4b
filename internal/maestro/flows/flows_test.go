package flows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	maestro "carhub/internal/maestro/core"
	"carhub/pkg/client"
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"carhub/pkg/rental"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	freeVehicleID   = "507f1f77bcf86cd799439011"
	bookedVehicleID = "507f1f77bcf86cd799439012"
	resellerID      = "507f1f77bcf86cd799439022"
	inactiveID      = "507f1f77bcf86cd799439023"
)

// fakeBackend serves the bookings and resellers endpoints maestro calls.
type fakeBackend struct {
	mu              sync.Mutex
	calls           []string
	idempotencyKeys []string
	bookingStatus   int
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) router() *httprouter.Router {
	router := httprouter.New()

	router.GET("/api/v1/availability", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		f.record("availability")
		_ = httputil.WriteSuccess(w, []model.Vehicle{
			{ID: freeVehicleID, Make: "Toyota", Model: "Corolla", Type: model.VehicleTypeRental},
		})
	})

	router.GET("/api/v1/availability/vehicles/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		f.record("vehicle_availability")
		_ = httputil.WriteSuccess(w, rental.VehicleAvailability{
			VehicleID:            ps.ByName("id"),
			Reason:               "booked",
			ConflictingBookingID: "665f1f77bcf86cd799439001",
		})
	})

	quote := func(call string) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			f.record(call)
			_ = httputil.WriteSuccess(w, model.Quote{Days: 3, CustomerTotal: model.MustDecimal("330")})
		}
	}
	router.POST("/api/v1/quotes/public", quote("quote_public"))
	router.POST("/api/v1/quotes/reseller", quote("quote_reseller"))

	create := func(call, channel string) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			f.record(call)
			f.mu.Lock()
			f.idempotencyKeys = append(f.idempotencyKeys, r.Header.Get("Idempotency-Key"))
			status := f.bookingStatus
			f.mu.Unlock()

			if status == http.StatusConflict {
				_ = httputil.WriteError(w, apperrors.Conflict("vehicle is already booked for the requested window"))
				return
			}

			var req model.ResellerBookingRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = httputil.WriteCreated(w, model.Booking{
				ID:         "665f1f77bcf86cd799439099",
				VehicleID:  req.VehicleID,
				Channel:    channel,
				ResellerID: req.ResellerID,
				Status:     model.BookingStatusConfirmed,
			})
		}
	}
	router.POST("/api/v1/bookings/public", create("create_public", model.ChannelPublic))
	router.POST("/api/v1/bookings/reseller", create("create_reseller", model.ChannelReseller))

	router.GET("/api/v1/resellers/id/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		f.record("reseller")
		id := ps.ByName("id")
		switch id {
		case resellerID:
			_ = httputil.WriteSuccess(w, model.Reseller{ID: id, Name: "Sunny Tours", Active: true})
		case inactiveID:
			_ = httputil.WriteSuccess(w, model.Reseller{ID: id, Name: "Closed Tours", Active: false})
		default:
			_ = httputil.WriteError(w, apperrors.NotFoundWithID("Reseller", id))
		}
	})

	return router
}

func setup(t *testing.T) (*fakeBackend, *maestro.Engine, *client.Client) {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)

	c := client.NewClient()
	c.SetBookingClient(srv.URL)
	c.SetResellerClient(srv.URL)
	return backend, maestro.NewEngine(All()...), c
}

func rentalInput(vehicleID string) map[string]any {
	return map[string]any{
		"start_date":     "2024-06-01",
		"end_date":       "2024-06-04",
		"vehicle_id":     vehicleID,
		"payment_method": "cash",
		"customer":       map[string]any{"name": "Dana Levi", "phone": "+972541234567"},
	}
}

func run(engine *maestro.Engine, c *client.Client, flow string, input map[string]any) (*maestro.MaestroContext, error) {
	ctx := maestro.NewMaestroContext(context.Background(), input, c, logger.Discard())
	return ctx, engine.Run(flow, ctx)
}

func TestParsePublicRentalInput_RequestCarriesWindow(t *testing.T) {
	ctx := maestro.NewMaestroContext(context.Background(), rentalInput(freeVehicleID), nil, logger.Discard())
	require.NoError(t, ParsePublicRentalInput(ctx))

	req, err := maestro.Load[model.BookingRequest](ctx, REQUEST)
	require.NoError(t, err)
	details := req.Details()
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), details.StartDate)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), details.EndDate)

	input := rentalInput(freeVehicleID)
	input["end_date"] = "not-a-date"
	ctx = maestro.NewMaestroContext(context.Background(), input, nil, logger.Discard())
	require.Error(t, ParsePublicRentalInput(ctx))
	_, err = maestro.Load[model.BookingRequest](ctx, REQUEST)
	assert.Error(t, err)
}

func TestFleetAvailability(t *testing.T) {
	backend, engine, c := setup(t)

	ctx, err := run(engine, c, FleetAvailabilityFlow, map[string]any{"start_date": "2024-06-01", "end_date": "2024-06-04"})
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.Output[OUT_COUNT])
	assert.Len(t, ctx.Output[OUT_VEHICLES], 1)
	assert.Equal(t, []string{"availability"}, backend.calls)
}

func TestPublicRental_HappyPath(t *testing.T) {
	backend, engine, c := setup(t)

	input := rentalInput(freeVehicleID)
	input["idempotency_key"] = "checkout-42"
	ctx, err := run(engine, c, PublicRentalFlow, input)
	require.NoError(t, err)

	booking := ctx.Output[OUT_BOOKING].(*model.Booking)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, freeVehicleID, booking.VehicleID)
	assert.Equal(t, "330.00", ctx.Output[OUT_QUOTE].(*model.Quote).CustomerTotal.StringFixed(2))
	assert.Equal(t, []string{"availability", "quote_public", "create_public"}, backend.calls)
	assert.Equal(t, []string{"checkout-42"}, backend.idempotencyKeys)
}

func TestPublicRental_GeneratesIdempotencyKey(t *testing.T) {
	backend, engine, c := setup(t)

	_, err := run(engine, c, PublicRentalFlow, rentalInput(freeVehicleID))
	require.NoError(t, err)
	require.Len(t, backend.idempotencyKeys, 1)
	assert.NotEmpty(t, backend.idempotencyKeys[0])
}

func TestPublicRental_VehicleNotAvailable(t *testing.T) {
	backend, engine, c := setup(t)

	_, err := run(engine, c, PublicRentalFlow, rentalInput(bookedVehicleID))
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, "select_vehicle", appErr.Details["step"])
	assert.Equal(t, "665f1f77bcf86cd799439001", appErr.Details["conflicting_booking_id"])
	assert.Equal(t, []string{"availability", "vehicle_availability"}, backend.calls)
}

func TestPublicRental_ConflictOnSubmit(t *testing.T) {
	backend, engine, c := setup(t)
	backend.bookingStatus = http.StatusConflict

	_, err := run(engine, c, PublicRentalFlow, rentalInput(freeVehicleID))
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode())
	assert.Equal(t, "submit_booking", appErr.Details["step"])
}

func TestPublicRental_InvalidInput(t *testing.T) {
	backend, engine, c := setup(t)

	input := rentalInput(freeVehicleID)
	delete(input, "customer")
	_, err := run(engine, c, PublicRentalFlow, input)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Empty(t, backend.calls)
}

func TestResellerBooking_HappyPath(t *testing.T) {
	backend, engine, c := setup(t)

	input := rentalInput(freeVehicleID)
	input["reseller_id"] = resellerID
	input["upcharge_percentage"] = "10"
	ctx, err := run(engine, c, ResellerBookingFlow, input)
	require.NoError(t, err)

	booking := ctx.Output[OUT_BOOKING].(*model.Booking)
	assert.Equal(t, model.ChannelReseller, booking.Channel)
	assert.Equal(t, resellerID, booking.ResellerID)
	assert.Equal(t, "Sunny Tours", ctx.Output[OUT_RESELLER].(*model.Reseller).Name)
	assert.Equal(t, []string{"reseller", "availability", "quote_reseller", "create_reseller"}, backend.calls)
}

func TestResellerBooking_InactiveOrUnknownReseller(t *testing.T) {
	tests := []struct {
		name       string
		resellerID string
		wantCode   string
	}{
		{"inactive", inactiveID, apperrors.CodeForbidden},
		{"unknown", "507f1f77bcf86cd799439099", apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, engine, c := setup(t)

			input := rentalInput(freeVehicleID)
			input["reseller_id"] = tt.resellerID
			_, err := run(engine, c, ResellerBookingFlow, input)
			assert.True(t, apperrors.HasCode(err, tt.wantCode))
			assert.Equal(t, []string{"reseller"}, backend.calls)
		})
	}
}
