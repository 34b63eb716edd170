package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ProcessValidationErrors flattens binding validation failures into a
// field -> failed-tag map for the error response body.
func ProcessValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}
