package client

import (
	"carhub/pkg/model"
	"carhub/pkg/rental"
	"context"
	"fmt"
	"net/url"
	"time"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func dateRangeQuery(start, end time.Time) url.Values {
	q := url.Values{}
	q.Set("start_date", start.UTC().Format(time.RFC3339))
	q.Set("end_date", end.UTC().Format(time.RFC3339))
	return q
}

func (c *BookingClient) Availability(ctx context.Context, start, end time.Time) ([]model.Vehicle, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/availability?"+dateRangeQuery(start, end).Encode())
	if err != nil {
		return nil, err
	}
	vehicles, err := DecodeData[[]model.Vehicle](resp)
	if err != nil {
		return nil, err
	}
	return *vehicles, nil
}

func (c *BookingClient) VehicleAvailability(ctx context.Context, vehicleID string, start, end time.Time) (*rental.VehicleAvailability, error) {
	path := "/api/v1/availability/vehicles/" + url.PathEscape(vehicleID) + "?" + dateRangeQuery(start, end).Encode()
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	return DecodeData[rental.VehicleAvailability](resp)
}

func (c *BookingClient) QuotePublic(ctx context.Context, req *model.PublicBookingRequest) (*model.Quote, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/quotes/public", req)
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Quote](resp)
}

func (c *BookingClient) QuoteReseller(ctx context.Context, req *model.ResellerBookingRequest) (*model.Quote, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/quotes/reseller", req)
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Quote](resp)
}

// CreatePublic forwards idempotencyKey so a retried checkout never books twice.
func (c *BookingClient) CreatePublic(ctx context.Context, req *model.PublicBookingRequest, idempotencyKey string) (*model.Booking, error) {
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings/public", req, idempotencyHeaders(idempotencyKey))
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Booking](resp)
}

func (c *BookingClient) CreateReseller(ctx context.Context, req *model.ResellerBookingRequest, idempotencyKey string) (*model.Booking, error) {
	resp, err := c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings/reseller", req, idempotencyHeaders(idempotencyKey))
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Booking](resp)
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Booking](resp)
}

func (c *BookingClient) GetAll(ctx context.Context, limit int, offset int64) ([]model.Booking, *Metadata, error) {
	path := fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset)
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return DecodePage[model.Booking](resp)
}

func (c *BookingClient) UpdateStatus(ctx context.Context, id, status string) (*model.Booking, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/status"
	resp, err := c.httpClient.PATCH(ctx, path, model.BookingStatusUpdate{Status: status})
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Booking](resp)
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/cancel"
	resp, err := c.httpClient.POST(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Booking](resp)
}

func idempotencyHeaders(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{"Idempotency-Key": key}
}
