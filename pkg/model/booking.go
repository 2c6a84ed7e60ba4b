package model

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusActive    = "active"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	ChannelPublic   = "public"
	ChannelReseller = "reseller"

	PaymentCash   = "cash"
	PaymentCredit = "credit"
)

type Customer struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" bson:"phone" validate:"required,e164"`
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VehicleID     string    `json:"vehicle_id" bson:"vehicle_id" validate:"required,mongodb"`
	StartDate     time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed active completed cancelled"`
	Channel       string    `json:"channel" bson:"channel" validate:"required,oneof=public reseller"`
	ResellerID    string    `json:"reseller_id,omitempty" bson:"reseller_id,omitempty" validate:"omitempty,mongodb"`
	Customer      Customer  `json:"customer" bson:"customer"`
	PaymentMethod string    `json:"payment_method" bson:"payment_method" validate:"required,oneof=cash credit"`
	Pricing       Quote     `json:"pricing" bson:"pricing"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type BookingStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed active completed cancelled"`
}

// BookingDetails is what every booking request carries regardless of channel.
type BookingDetails struct {
	VehicleID     string    `json:"vehicle_id" validate:"required,mongodb"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=cash credit"`
	Customer      *Customer `json:"customer,omitempty" validate:"omitempty"`
}

// BookingRequest is either a PublicBookingRequest or a ResellerBookingRequest.
type BookingRequest interface {
	Channel() string
	Details() BookingDetails
}

type PublicBookingRequest struct {
	BookingDetails
}

func (r *PublicBookingRequest) Channel() string {
	return ChannelPublic
}

func (r *PublicBookingRequest) Details() BookingDetails {
	return r.BookingDetails
}

// ResellerBookingRequest is submitted from the reseller portal. The commission
// rate is never part of the request; it comes from the reseller account.
type ResellerBookingRequest struct {
	BookingDetails
	ResellerID         string  `json:"reseller_id" validate:"required,mongodb"`
	UpchargePercentage Decimal `json:"upcharge_percentage"`
}

func (r *ResellerBookingRequest) Channel() string {
	return ChannelReseller
}

func (r *ResellerBookingRequest) Details() BookingDetails {
	return r.BookingDetails
}

// BookingSearch filters bookings of one vehicle, optionally by date window.
type BookingSearch struct {
	VehicleID string
	StartDate *time.Time
	EndDate   *time.Time
}
