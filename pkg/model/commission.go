package model

import "time"

const (
	CommissionAccrued = "accrued"
	CommissionPayable = "payable"
	CommissionVoid    = "void"
)

// CommissionEntry is the settlement record of one reseller booking. Its ID is
// the booking ID so replays of the same event never create a second entry.
type CommissionEntry struct {
	ID               string    `json:"id" bson:"_id"`
	ResellerID       string    `json:"reseller_id" bson:"reseller_id"`
	VehicleID        string    `json:"vehicle_id" bson:"vehicle_id"`
	CommissionAmount Decimal   `json:"commission_amount" bson:"commission_amount"`
	UpchargeAmount   Decimal   `json:"upcharge_amount" bson:"upcharge_amount"`
	Earnings         Decimal   `json:"earnings" bson:"earnings"`
	CustomerTotal    Decimal   `json:"customer_total" bson:"customer_total"`
	Status           string    `json:"status" bson:"status"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

type CommissionTotals struct {
	Count    int64   `json:"count" bson:"count"`
	Earnings Decimal `json:"earnings" bson:"earnings"`
}

type CommissionSummary struct {
	ResellerID string                      `json:"reseller_id"`
	ByStatus   map[string]CommissionTotals `json:"by_status"`
	Total      CommissionTotals            `json:"total"`
}
