package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns validator failures into a single validation error
// naming the first offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.Validation("invalid request")
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return shared.Validation(fmt.Sprintf("%s is required", field))
	case "min":
		return shared.Validation(fmt.Sprintf("%s must contain at least %s entries", field, fe.Param()))
	case "gt":
		return shared.Validation(fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
	case "max":
		return shared.Validation(fmt.Sprintf("%s is too long", field))
	default:
		return shared.Validation(fmt.Sprintf("%s is invalid", field))
	}
}

func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}
