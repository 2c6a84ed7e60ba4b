package validator

import (
	"errors"
	"fmt"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"strings"
	"time"

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

type VehicleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVehicleValidator(log *logger.Logger) *VehicleValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(model.DecimalValuer, model.Decimal{})

	if err := v.RegisterValidation("model_year", validateModelYear); err != nil {
		log.Fatal("Failed to register 'model_year' validator", "error", err)
	}

	return &VehicleValidator{
		validate: v,
		logger:   log,
	}
}

// validateModelYear allows next year's models, which dealers list early.
func validateModelYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year <= int64(time.Now().UTC().Year()+1)
}

func (v *VehicleValidator) Validate(vehicle *model.Vehicle) error {
	if err := v.validate.Struct(vehicle); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(vehicle)
}

func (v *VehicleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		field := toSnakeCase(err.Field())
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min", "gte":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max", "lte":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		case "model_year":
			message = "year cannot be later than next year"
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid id", field)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

func (v *VehicleValidator) validateBusinessRules(vehicle *model.Vehicle) error {
	var errs ValidationErrors

	if vehicle.Rentable() && vehicle.RentalPrice == nil {
		errs = append(errs, ValidationError{
			Field:   "rental_price",
			Message: fmt.Sprintf("rental_price is required for vehicles of type %s", vehicle.Type),
		})
	}
	if vehicle.RentalPrice != nil && vehicle.RentalPrice.IsZero() && vehicle.Rentable() {
		errs = append(errs, ValidationError{
			Field:   "rental_price",
			Message: "rental_price must be greater than 0",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
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
