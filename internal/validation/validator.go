// Package validation configures the go-playground validator used by gin binding and
// turns its errors into field-keyed messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key used for errors that do not belong to a single field.
const NonFieldErrors = "non_field_errors"

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	setupOnce sync.Once
	setupErr  error
)

// Setup registers json field names and the custom rules on gin's validator engine.
func Setup() error {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			setupErr = errors.New("unexpected validator engine")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		}); err != nil {
			setupErr = err
			return
		}
		setupErr = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return setupErr
}

// Validate runs the binding rules on obj outside of a request.
func Validate(obj interface{}) error {
	if err := Setup(); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}

// FieldErrors converts binding and validation errors into field -> messages. The second
// result is false when err is not a validation problem.
func FieldErrors(err error) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string][]string)
		for _, fe := range verrs {
			key, nested := fieldKey(fe)
			msg := message(fe)
			if nested {
				msg = fe.Field() + ": " + msg
			}
			out[key] = append(out[key], msg)
		}
		return out, true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.IndexAny(field, ".["); i >= 0 {
			field = field[:i]
		}
		if field == "" {
			field = NonFieldErrors
		}
		return map[string][]string{
			field: {fmt.Sprintf("Expected a value of type %s.", typeErr.Type)},
		}, true
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return map[string][]string{NonFieldErrors: {"Malformed JSON body."}}, true
	}

	return nil, false
}

// fieldKey returns the top-level json field of the error and whether it was raised
// on a nested element (a list item field).
func fieldKey(fe validator.FieldError) (string, bool) {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		return ns[:i], true
	}
	return ns, false
}

func message(fe validator.FieldError) string {
	numeric := false
	list := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		numeric = true
	case reflect.Slice, reflect.Array, reflect.Map:
		list = true
	}

	switch fe.Tag() {
	case "required":
		if numeric {
			return "Ensure this value is greater than or equal to 1."
		}
		return "This field is required."
	case "min":
		switch {
		case numeric:
			return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		case list:
			return fmt.Sprintf("Ensure this list has at least %s elements.", fe.Param())
		default:
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
	case "max":
		switch {
		case numeric:
			return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		case list:
			return fmt.Sprintf("Ensure this list has no more than %s elements.", fe.Param())
		default:
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers and @/./+/-/_ characters."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "hexcolor":
		return "Enter a valid hex color, e.g. #FF0000."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
