package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"go-sales-crm/internal/apperr"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range verrs {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Check validates data and returns the first failure as an
// apperr.ValidationError, or nil.
func Check(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return apperr.Validation(first.FailedField, message(first))
}

func message(e *ErrorResponse) string {
	switch e.Tag {
	case "required":
		return "is required"
	case "required_with":
		return fmt.Sprintf("is required together with %s", e.Value)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Value)
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Value)
	case "min":
		return fmt.Sprintf("must have at least %s", e.Value)
	case "email":
		return "must be a valid email address"
	}
	return fmt.Sprintf("failed on tag '%s'", e.Tag)
}
