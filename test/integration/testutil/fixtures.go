package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"carhub/pkg/model"
)

var fixtureSeq atomic.Int64

type VehicleBuilder struct {
	v model.Vehicle
}

func NewVehicleBuilder() *VehicleBuilder {
	price := model.DecimalFromInt(100)
	return &VehicleBuilder{
		v: model.Vehicle{
			Make:         "Toyota",
			Model:        "Corolla",
			Year:         2022,
			Type:         model.VehicleTypeRental,
			RentalPrice:  &price,
			Mileage:      12000,
			Transmission: "automatic",
			Fuel:         "hybrid",
			Seats:        5,
		},
	}
}

func (b *VehicleBuilder) WithType(vehicleType string) *VehicleBuilder {
	b.v.Type = vehicleType
	return b
}

func (b *VehicleBuilder) WithRentalPrice(price string) *VehicleBuilder {
	d := model.MustDecimal(price)
	b.v.RentalPrice = &d
	return b
}

func (b *VehicleBuilder) BuildPtr() *model.Vehicle {
	v := b.v
	return &v
}

type ResellerBuilder struct {
	r model.Reseller
}

// NewResellerBuilder gives every reseller a distinct email, which is unique
// in the Resellers collection.
func NewResellerBuilder() *ResellerBuilder {
	n := fixtureSeq.Add(1)
	return &ResellerBuilder{
		r: model.Reseller{
			Name:           "Sunny Tours",
			Company:        "Sunny Tours Ltd",
			Phone:          "+972541234567",
			Email:          fmt.Sprintf("agent-%d-%d@sunny.example", time.Now().UnixNano(), n),
			CommissionRate: model.DecimalFromInt(10),
		},
	}
}

func (b *ResellerBuilder) WithCommissionRate(rate string) *ResellerBuilder {
	b.r.CommissionRate = model.MustDecimal(rate)
	return b
}

func (b *ResellerBuilder) BuildPtr() *model.Reseller {
	r := b.r
	return &r
}

func Customer() *model.Customer {
	return &model.Customer{
		Name:  "Dana Levi",
		Phone: "+972541234567",
		Email: "dana@example.com",
	}
}

// Window returns a rental window starting days from today (UTC), lasting
// length days.
func Window(days, length int) (time.Time, time.Time) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, days)
	return start, start.AddDate(0, 0, length)
}

func PublicBooking(vehicleID string, start, end time.Time, payment string) *model.PublicBookingRequest {
	return &model.PublicBookingRequest{
		BookingDetails: model.BookingDetails{
			VehicleID:     vehicleID,
			StartDate:     start,
			EndDate:       end,
			PaymentMethod: payment,
			Customer:      Customer(),
		},
	}
}

func ResellerBooking(vehicleID, resellerID string, start, end time.Time, upcharge string) *model.ResellerBookingRequest {
	return &model.ResellerBookingRequest{
		BookingDetails: model.BookingDetails{
			VehicleID:     vehicleID,
			StartDate:     start,
			EndDate:       end,
			PaymentMethod: model.PaymentCash,
			Customer:      Customer(),
		},
		ResellerID:         resellerID,
		UpchargePercentage: model.MustDecimal(upcharge),
	}
}
