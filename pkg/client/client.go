package client

import (
	"carhub/pkg/logger"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Client holds the shared connections of one service process.
type Client struct {
	Mongo *mongo.Client
	Redis *redis.Client

	Vehicles  *VehicleClient
	Resellers *ResellerClient
	Bookings  *BookingClient
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.Mongo = connectMongo(log, mongoURI, mongoConnTimeout)
}

func (c *Client) SetRedis(log *logger.Logger, addr, password string, db int, connTimeout time.Duration) {
	c.Redis = connectRedis(log, addr, password, db, connTimeout)
}

func (c *Client) SetVehicleClient(baseURL string) {
	c.Vehicles = NewVehicleClient(baseURL)
}

func (c *Client) SetResellerClient(baseURL string) {
	c.Resellers = NewResellerClient(baseURL)
}

func (c *Client) SetBookingClient(baseURL string) {
	c.Bookings = NewBookingClient(baseURL)
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		} else {
			log.Info("Disconnected from MongoDB")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		} else {
			log.Info("Closed Redis client")
		}
	}
}
