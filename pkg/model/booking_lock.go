package model

import "time"

// BookingLock is an advisory lock held while a booking for one vehicle is
// checked and inserted. Expired locks are removed by a TTL index.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	VehicleID string    `bson:"vehicle_id" json:"vehicle_id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
