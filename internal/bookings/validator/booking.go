package validator

import (
	"errors"
	"fmt"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(model.DecimalValuer, model.Decimal{})

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateQuote checks the fields a quote needs. Date order and percentage
// ranges are left to the pricing rules so they surface as domain errors.
func (v *BookingValidator) ValidateQuote(req model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// Validate checks a request that is about to become a booking. On top of the
// quote fields it requires the customer contact.
func (v *BookingValidator) Validate(req model.BookingRequest) error {
	if err := v.ValidateQuote(req); err != nil {
		return err
	}

	if req.Details().Customer == nil {
		return ValidationErrors{{
			Field:   "customer",
			Message: "customer is required",
		}}
	}
	return nil
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := fieldPath(err.Namespace())
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid id", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be a valid phone number", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

// fieldPath turns "PublicBookingRequest.BookingDetails.Customer.Phone" into
// "customer.phone". The struct name and embedded structs are dropped.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	var out []string
	for _, part := range parts {
		if part == "BookingDetails" {
			continue
		}
		out = append(out, toSnakeCase(part))
	}
	return strings.Join(out, ".")
}

func toSnakeCase(field string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range field {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}
