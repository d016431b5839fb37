// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("serial_number", validateSerialNumber)
	validate.RegisterValidation("location_code", validateLocationCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateSerialNumber(fl validator.FieldLevel) bool {
	serial := fl.Field().String()

	// Serial numbers are printable identifiers, 1-100 characters, no spaces
	if len(serial) < 1 || len(serial) > 100 {
		return false
	}

	matched, _ := regexp.MatchString(`^[a-zA-Z0-9._/-]+$`, serial)
	return matched
}

func validateLocationCode(fl validator.FieldLevel) bool {
	location := fl.Field().String()

	if len(location) < 1 || len(location) > 100 {
		return false
	}

	matched, _ := regexp.MatchString(`^[a-zA-Z0-9 ._-]+$`, location)
	return matched
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "serial_number":
		return "Serial numbers must be 1-100 characters of letters, digits, or ._/-"
	case "location_code":
		return "Location codes must be 1-100 characters of letters, digits, spaces, or ._-"
	default:
		return e.Field() + " is invalid"
	}
}
