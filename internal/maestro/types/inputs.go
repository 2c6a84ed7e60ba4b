package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(model.DecimalValuer, model.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WindowInput is the rental window shared by every flow. Dates accept
// YYYY-MM-DD or RFC3339.
type WindowInput struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

func (w WindowInput) Window() (time.Time, time.Time, error) {
	start, err := httputil.ParseDate(w.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid start_date format, must be YYYY-MM-DD or RFC3339")
	}
	end, err := httputil.ParseDate(w.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid end_date format, must be YYYY-MM-DD or RFC3339")
	}
	return start, end, nil
}

type FleetAvailabilityInput struct {
	WindowInput
}

type PublicRentalInput struct {
	WindowInput
	VehicleID      string         `json:"vehicle_id" validate:"required,mongodb"`
	PaymentMethod  string         `json:"payment_method" validate:"required,oneof=cash credit"`
	Customer       model.Customer `json:"customer"`
	IdempotencyKey string         `json:"idempotency_key" validate:"omitempty,max=255"`
}

type ResellerBookingInput struct {
	PublicRentalInput
	ResellerID         string        `json:"reseller_id" validate:"required,mongodb"`
	UpchargePercentage model.Decimal `json:"upcharge_percentage"`
}

// Decode converts the free-form flow input into T and validates it.
func Decode[T any](input map[string]any) (*T, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, apperrors.InvalidInput("flow input is not valid JSON")
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid flow input: %v", err))
	}

	if err := validate.Struct(&out); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return nil, apperrors.Internal("flow input validation failed", err)
		}
		details := make(map[string]any, len(validationErrs))
		for _, fe := range validationErrs {
			details[fieldPath(fe.Namespace())] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
		return nil, apperrors.Validation("Invalid flow input", details)
	}
	return &out, nil
}

// fieldPath drops the root type and embedded struct names from a validator
// namespace, so "PublicRentalInput.customer.phone" becomes "customer.phone".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := parts[:0]
	for _, part := range parts[1:] {
		if strings.HasSuffix(part, "Input") {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, ".")
}
