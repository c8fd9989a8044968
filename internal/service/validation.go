package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors are the json names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		_ = validate.RegisterValidation("slug", matches(slugPattern))
		_ = validate.RegisterValidation("username", matches(usernamePattern))
	})
	return validate
}

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// validateStruct runs the struct rules and converts failures into a ValidationError.
func validateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	return TranslateValidationErrors(fieldErrs)
}

// TranslateValidationErrors turns validator errors into a field-keyed ValidationError.
// Nested errors such as ingredients[0].amount are reported under the top-level field.
func TranslateValidationErrors(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{}
	for _, fe := range errs {
		field := topLevelField(fe.Namespace())
		ve.Add(field, fieldMessage(field, fe))
	}
	return ve
}

func topLevelField(namespace string) string {
	// Namespace is "Struct.field[0].sub"; drop the struct name.
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	if i := strings.IndexAny(namespace, ".["); i >= 0 {
		namespace = namespace[:i]
	}
	return namespace
}

func fieldMessage(field string, fe validator.FieldError) string {
	nested := field != fe.Field()

	switch fe.Tag() {
	case "required":
		if nested {
			return fmt.Sprintf("Each %s entry needs a %s.", singular(field), fe.Field())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least one %s is required.", singular(field))
		}
		return "This field is required."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least one %s is required.", singular(field))
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure %s is greater than or equal to %s.", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure %s is less than or equal to %s.", fe.Field(), fe.Param())
	case "unique":
		return fmt.Sprintf("Each %s may only be listed once.", singular(field))
	case "email":
		return "Enter a valid email address."
	case "hexcolor", "len":
		return "Enter a color in #RRGGBB form."
	case "slug":
		return "Use only letters, numbers, underscores or hyphens."
	case "username":
		return "Use only letters, digits and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Failed the %q rule.", fe.Tag())
	}
}

func singular(field string) string {
	return strings.TrimSuffix(field, "s")
}
