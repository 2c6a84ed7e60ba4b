package client

import (
	"carhub/pkg/model"
	"context"
	"fmt"
	"net/url"
)

type VehicleClient struct {
	httpClient *HttpClient
}

func NewVehicleClient(baseUrl string) *VehicleClient {
	return &VehicleClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *VehicleClient) Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/vehicles", vehicle)
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Vehicle](resp)
}

func (c *VehicleClient) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/vehicles/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Vehicle](resp)
}

func (c *VehicleClient) List(ctx context.Context, vehicleType string, limit int, offset int64) ([]model.Vehicle, *Metadata, error) {
	q := url.Values{}
	if vehicleType != "" {
		q.Set("type", vehicleType)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	resp, err := c.httpClient.GET(ctx, "/api/v1/vehicles?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}
	return DecodePage[model.Vehicle](resp)
}
