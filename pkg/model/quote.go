package model

// Quote is the price breakdown of a rental. It is recomputed on every request
// until a booking is persisted, at which point the booking keeps its own copy.
type Quote struct {
	DailyRate          Decimal `json:"daily_rate" bson:"daily_rate"`
	Days               int     `json:"days" bson:"days"`
	Subtotal           Decimal `json:"subtotal" bson:"subtotal"`
	UpchargePercentage Decimal `json:"upcharge_percentage" bson:"upcharge_percentage"`
	UpchargeAmount     Decimal `json:"upcharge_amount" bson:"upcharge_amount"`
	PaymentMethod      string  `json:"payment_method" bson:"payment_method"`
	SurchargeRate      Decimal `json:"surcharge_rate" bson:"surcharge_rate"`
	Surcharge          Decimal `json:"surcharge" bson:"surcharge"`
	CustomerTotal      Decimal `json:"customer_total" bson:"customer_total"`
	CommissionRate     Decimal `json:"commission_rate" bson:"commission_rate"`
	CommissionAmount   Decimal `json:"commission_amount" bson:"commission_amount"`
	ResellerEarnings   Decimal `json:"reseller_earnings" bson:"reseller_earnings"`
}
