package model

import "time"

const (
	VehicleTypeSale   = "sale"
	VehicleTypeRental = "rental"
	VehicleTypeBoth   = "both"
)

type Vehicle struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Make         string    `json:"make" bson:"make" validate:"required,min=1,max=50"`
	Model        string    `json:"model" bson:"model" validate:"required,min=1,max=50"`
	Year         int       `json:"year" bson:"year" validate:"required,min=1950,model_year"`
	Type         string    `json:"type" bson:"type" validate:"required,oneof=sale rental both"`
	RentalPrice  *Decimal  `json:"rental_price,omitempty" bson:"rental_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice    *Decimal  `json:"sale_price,omitempty" bson:"sale_price,omitempty" validate:"omitempty,gte=0"`
	Mileage      int       `json:"mileage" bson:"mileage" validate:"omitempty,min=0"`
	Color        string    `json:"color,omitempty" bson:"color,omitempty" validate:"omitempty,max=30"`
	Transmission string    `json:"transmission,omitempty" bson:"transmission,omitempty" validate:"omitempty,oneof=automatic manual"`
	Fuel         string    `json:"fuel,omitempty" bson:"fuel,omitempty" validate:"omitempty,oneof=petrol diesel hybrid electric"`
	Seats        int       `json:"seats,omitempty" bson:"seats,omitempty" validate:"omitempty,min=1,max=9"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Rentable reports whether the vehicle can be offered for rental at all.
func (v *Vehicle) Rentable() bool {
	return v.Type == VehicleTypeRental || v.Type == VehicleTypeBoth
}

type VehicleUpdate struct {
	Make         string   `json:"make,omitempty" validate:"omitempty,min=1,max=50"`
	Model        string   `json:"model,omitempty" validate:"omitempty,min=1,max=50"`
	Year         *int     `json:"year,omitempty" validate:"omitempty,min=1950,max=2100"`
	Type         string   `json:"type,omitempty" validate:"omitempty,oneof=sale rental both"`
	RentalPrice  *Decimal `json:"rental_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice    *Decimal `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
	Mileage      *int     `json:"mileage,omitempty" validate:"omitempty,min=0"`
	Color        string   `json:"color,omitempty" validate:"omitempty,max=30"`
	Transmission string   `json:"transmission,omitempty" validate:"omitempty,oneof=automatic manual"`
	Fuel         string   `json:"fuel,omitempty" validate:"omitempty,oneof=petrol diesel hybrid electric"`
	Seats        *int     `json:"seats,omitempty" validate:"omitempty,min=1,max=9"`
}

// VehicleFilter narrows inventory listings. Zero values match everything.
type VehicleFilter struct {
	Types        []string
	Make         string
	MaxDailyRate *Decimal
}

// RentalFilter matches every vehicle that may be rented.
func RentalFilter() VehicleFilter {
	return VehicleFilter{Types: []string{VehicleTypeRental, VehicleTypeBoth}}
}
