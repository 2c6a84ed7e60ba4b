package validator

import (
	"errors"
	"fmt"
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

type ResellerValidator struct {
	validate *validator.Validate
}

func NewResellerValidator() *ResellerValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(model.DecimalValuer, model.Decimal{})

	return &ResellerValidator{
		validate: v,
	}
}

func (v *ResellerValidator) Validate(reseller *model.Reseller) error {
	if err := v.validate.Struct(reseller); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !reseller.CommissionRate.Equal(reseller.CommissionRate.Round(2)) {
		return ValidationErrors{{
			Field:   "commission_rate",
			Message: "commission_rate supports at most two decimal places",
		}}
	}

	return nil
}

func (v *ResellerValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		var field, message string

		switch err.Field() {
		case "CommissionRate":
			field = "commission_rate"
			message = "commission_rate must be between 0 and 100"
		case "Phone":
			field = "phone"
			message = "phone must be a valid phone number"
		case "Email":
			field = "email"
			message = "email must be a valid email address"
		default:
			field = strings.ToLower(err.Field())
			message = fmt.Sprintf("%s failed on the '%s' rule", field, err.Tag())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}
