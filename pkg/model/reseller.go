package model

import "time"

type Reseller struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name           string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Company        string    `json:"company,omitempty" bson:"company,omitempty" validate:"omitempty,max=100"`
	Phone          string    `json:"phone" bson:"phone" validate:"required,e164"`
	Email          string    `json:"email" bson:"email" validate:"required,email"`
	CommissionRate Decimal   `json:"commission_rate" bson:"commission_rate" validate:"gte=0,lte=100"`
	Active         bool      `json:"active" bson:"active"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ResellerUpdate struct {
	Name           string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Company        string   `json:"company,omitempty" validate:"omitempty,max=100"`
	Phone          string   `json:"phone,omitempty" validate:"omitempty,e164"`
	Email          string   `json:"email,omitempty" validate:"omitempty,email"`
	CommissionRate *Decimal `json:"commission_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Active         *bool    `json:"active,omitempty"`
}
