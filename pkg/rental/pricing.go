package rental

import (
	"carhub/pkg/model"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultSurchargeRate = 14

var (
	hundred = decimal.NewFromInt(100)
	day     = 24 * time.Hour
)

type QuoteInput struct {
	DailyRate          decimal.Decimal
	StartDate          time.Time
	EndDate            time.Time
	UpchargePercentage decimal.Decimal
	CommissionRate     decimal.Decimal
	PaymentMethod      string
}

// Days is the number of started 24 hour periods between start and end.
func Days(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, &InvalidRangeError{Start: start, End: end}
	}
	elapsed := end.Sub(start)
	days := int(elapsed / day)
	if elapsed%day != 0 {
		days++
	}
	return days, nil
}

// Calculate prices a rental. surchargeRate is the credit card surcharge in
// percent; it applies to the subtotal plus upcharge and only for credit.
// Nothing is rounded here.
func Calculate(in QuoteInput, surchargeRate decimal.Decimal) (model.Quote, error) {
	if err := checkQuoteInput(in, surchargeRate); err != nil {
		return model.Quote{}, err
	}

	days, err := Days(in.StartDate, in.EndDate)
	if err != nil {
		return model.Quote{}, err
	}

	subtotal := in.DailyRate.Mul(decimal.NewFromInt(int64(days)))
	upcharge := subtotal.Mul(in.UpchargePercentage).Div(hundred)
	preSurcharge := subtotal.Add(upcharge)

	surcharge := decimal.Zero
	if in.PaymentMethod == model.PaymentCredit {
		surcharge = preSurcharge.Mul(surchargeRate).Div(hundred)
	}

	commission := subtotal.Mul(in.CommissionRate).Div(hundred)

	return model.Quote{
		DailyRate:          model.NewDecimal(in.DailyRate),
		Days:               days,
		Subtotal:           model.NewDecimal(subtotal),
		UpchargePercentage: model.NewDecimal(in.UpchargePercentage),
		UpchargeAmount:     model.NewDecimal(upcharge),
		PaymentMethod:      in.PaymentMethod,
		SurchargeRate:      model.NewDecimal(surchargeRate),
		Surcharge:          model.NewDecimal(surcharge),
		CustomerTotal:      model.NewDecimal(preSurcharge.Add(surcharge)),
		CommissionRate:     model.NewDecimal(in.CommissionRate),
		CommissionAmount:   model.NewDecimal(commission),
		ResellerEarnings:   model.NewDecimal(commission.Add(upcharge)),
	}, nil
}

func checkQuoteInput(in QuoteInput, surchargeRate decimal.Decimal) error {
	if in.DailyRate.IsNegative() {
		return &InvalidQuoteInputError{Field: "daily_rate", Reason: "must not be negative"}
	}
	if !inPercentRange(in.UpchargePercentage) {
		return &InvalidQuoteInputError{Field: "upcharge_percentage", Reason: "must be between 0 and 100"}
	}
	if !inPercentRange(in.CommissionRate) {
		return &InvalidQuoteInputError{Field: "commission_rate", Reason: "must be between 0 and 100"}
	}
	if in.PaymentMethod != model.PaymentCash && in.PaymentMethod != model.PaymentCredit {
		return &InvalidQuoteInputError{Field: "payment_method", Reason: "must be cash or credit"}
	}
	if surchargeRate.IsNegative() {
		return &InvalidQuoteInputError{Field: "surcharge_rate", Reason: "must not be negative"}
	}
	return nil
}

func inPercentRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
