package client

import (
	"carhub/pkg/model"
	"context"
	"net/url"
)

type ResellerClient struct {
	httpClient *HttpClient
}

func NewResellerClient(baseUrl string) *ResellerClient {
	return &ResellerClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *ResellerClient) Create(ctx context.Context, reseller *model.Reseller) (*model.Reseller, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/resellers", reseller)
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Reseller](resp)
}

func (c *ResellerClient) GetByID(ctx context.Context, id string) (*model.Reseller, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/resellers/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return DecodeData[model.Reseller](resp)
}
