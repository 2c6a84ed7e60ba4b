package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "carhub/pkg/errors"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"carhub/pkg/rental"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingService struct {
	availabilityFunc func(ctx context.Context, start, end time.Time) ([]*model.Vehicle, error)
	quoteFunc        func(ctx context.Context, req model.BookingRequest) (*model.Quote, error)
	createFunc       func(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	updateStatusFunc func(ctx context.Context, id string, status string) (*model.Booking, error)
	searchFunc       func(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, int64, error)
	listResellerFunc func(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

func (m *mockBookingService) Availability(ctx context.Context, start, end time.Time) ([]*model.Vehicle, error) {
	if m.availabilityFunc != nil {
		return m.availabilityFunc(ctx, start, end)
	}
	return []*model.Vehicle{}, nil
}

func (m *mockBookingService) VehicleAvailability(ctx context.Context, vehicleID string, start, end time.Time) (*rental.VehicleAvailability, error) {
	return &rental.VehicleAvailability{VehicleID: vehicleID, Available: true}, nil
}

func (m *mockBookingService) Quote(ctx context.Context, req model.BookingRequest) (*model.Quote, error) {
	if m.quoteFunc != nil {
		return m.quoteFunc(ctx, req)
	}
	return &model.Quote{}, nil
}

func (m *mockBookingService) Create(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Booking{ID: "665f1f77bcf86cd799439001"}, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, status string) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return &model.Booking{ID: id, Status: status}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return m.UpdateStatus(ctx, id, model.BookingStatusCancelled)
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) SearchByVehicle(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, search, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) ListByReseller(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.listResellerFunc != nil {
		return m.listResellerFunc(ctx, resellerID, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func serve(svc *mockBookingService, method, target string, body []byte) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAvailability_ParsesDates(t *testing.T) {
	var gotStart, gotEnd time.Time
	svc := &mockBookingService{
		availabilityFunc: func(ctx context.Context, start, end time.Time) ([]*model.Vehicle, error) {
			gotStart, gotEnd = start, end
			return []*model.Vehicle{{ID: "507f1f77bcf86cd799439011"}}, nil
		},
	}

	w := serve(svc, http.MethodGet, "/api/v1/availability?start_date=2024-06-01&end_date=2024-06-04", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), gotEnd)
	assert.Contains(t, w.Body.String(), "507f1f77bcf86cd799439011")

	w = serve(svc, http.MethodGet, "/api/v1/availability?start_date=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(svc, http.MethodGet, "/api/v1/availability?start_date=june&end_date=2024-06-04", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuote_RoutesByChannel(t *testing.T) {
	var channels []string
	svc := &mockBookingService{
		quoteFunc: func(ctx context.Context, req model.BookingRequest) (*model.Quote, error) {
			channels = append(channels, req.Channel())
			return &model.Quote{CustomerTotal: model.MustDecimal("376.2")}, nil
		},
	}

	w := serve(svc, http.MethodPost, "/api/v1/quotes/public", []byte(`{"vehicle_id":"507f1f77bcf86cd799439011"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"customer_total":376.20`)

	w = serve(svc, http.MethodPost, "/api/v1/quotes/reseller", []byte(`{"reseller_id":"507f1f77bcf86cd799439022","upcharge_percentage":10}`))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{model.ChannelPublic, model.ChannelReseller}, channels)
}

func TestCreateReseller_DecodesRequest(t *testing.T) {
	var got *model.ResellerBookingRequest
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
			got = req.(*model.ResellerBookingRequest)
			return &model.Booking{ID: "665f1f77bcf86cd799439001", Status: model.BookingStatusConfirmed}, nil
		},
	}

	body, err := json.Marshal(map[string]any{
		"vehicle_id":          "507f1f77bcf86cd799439011",
		"start_date":          "2024-06-01T10:00:00Z",
		"end_date":            "2024-06-04T10:00:00Z",
		"payment_method":      "credit",
		"reseller_id":         "507f1f77bcf86cd799439022",
		"upcharge_percentage": 12.5,
		"customer":            map[string]any{"name": "Dana Levi", "phone": "+972541234567"},
	})
	require.NoError(t, err)

	w := serve(svc, http.MethodPost, "/api/v1/bookings/reseller", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "507f1f77bcf86cd799439022", got.ResellerID)
	assert.Equal(t, "12.5", got.UpchargePercentage.String())
	assert.Equal(t, "Dana Levi", got.Customer.Name)
}

func TestCreatePublic_Conflict(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.Conflict("vehicle is already booked")
		},
	}

	w := serve(svc, http.MethodPost, "/api/v1/bookings/public", []byte(`{}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeConflict)
}

func TestCreatePublic_InvalidBody(t *testing.T) {
	w := serve(&mockBookingService{}, http.MethodPost, "/api/v1/bookings/public", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusAndCancel(t *testing.T) {
	var gotStatus []string
	svc := &mockBookingService{
		updateStatusFunc: func(ctx context.Context, id string, status string) (*model.Booking, error) {
			gotStatus = append(gotStatus, status)
			return &model.Booking{ID: id, Status: status}, nil
		},
	}

	w := serve(svc, http.MethodPatch, "/api/v1/bookings/id/665f1f77bcf86cd799439001/status", []byte(`{"status":"completed"}`))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(svc, http.MethodPost, "/api/v1/bookings/id/665f1f77bcf86cd799439001/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{model.BookingStatusCompleted, model.BookingStatusCancelled}, gotStatus)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFunc: func(ctx context.Context, id string, status string) (*model.Booking, error) {
			return nil, apperrors.InvalidTransition("invalid status transition", map[string]any{"from": "completed", "to": status})
		},
	}

	w := serve(svc, http.MethodPatch, "/api/v1/bookings/id/665f1f77bcf86cd799439001/status", []byte(`{"status":"cancelled"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInvalidTransition)
}

func TestSearch(t *testing.T) {
	var got model.BookingSearch
	svc := &mockBookingService{
		searchFunc: func(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, int64, error) {
			got = search
			return []*model.Booking{}, 0, nil
		},
	}

	w := serve(svc, http.MethodGet, "/api/v1/bookings/search?vehicle_id=507f1f77bcf86cd799439011&start_date=2024-06-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "507f1f77bcf86cd799439011", got.VehicleID)
	require.NotNil(t, got.StartDate)
	assert.Nil(t, got.EndDate)

	w = serve(svc, http.MethodGet, "/api/v1/bookings/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListByReseller(t *testing.T) {
	var gotReseller string
	var gotLimit int
	svc := &mockBookingService{
		listResellerFunc: func(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotReseller, gotLimit = resellerID, limit
			return []*model.Booking{}, 0, nil
		},
	}

	w := serve(svc, http.MethodGet, "/api/v1/bookings/reseller/507f1f77bcf86cd799439022?limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "507f1f77bcf86cd799439022", gotReseller)
	assert.Equal(t, 20, gotLimit)
}
