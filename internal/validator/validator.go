package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator usable both for config structs and as an echo.Validator.
//
// Field names in errors follow the `mapstructure`, `param` or `json` tag, in that order.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

func tagName(field reflect.StructField, tag string) (string, bool) {
	name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
	switch name {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return name, true
	}
}

func Create() CustomValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "param", "json"} {
			if name, ok := tagName(field, tag); ok {
				return name
			}
		}
		return field.Name
	})

	return CustomValidator{validator: validate}
}
