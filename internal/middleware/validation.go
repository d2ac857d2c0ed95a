package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// ErrMalformedBody is returned when the request body is not valid JSON for the target type
var ErrMalformedBody = errors.New("malformed request body")

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	// Report fields by their JSON name
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Let numeric tags like gt=0 apply to decimal values
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		// Keep the sign of values too small for a float64
		if f == 0 && !d.IsZero() {
			return float64(d.Sign()) * math.SmallestNonzeroFloat64
		}
		return f
	}, decimal.Decimal{})
}

// MessageProvider lets a request type replace the generic validation messages.
// Keys have the form "field.tag", e.g. "name.required".
type MessageProvider interface {
	ValidationMessages() map[string]string
}

// ValidateRequest validates a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it.
// Decoding problems are reported as ErrMalformedBody.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return ValidateRequest(v)
}

// FormatValidationErrors converts validator errors to "field: message" strings
func FormatValidationErrors(err error, v interface{}) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var messages map[string]string
	if mp, ok := v.(MessageProvider); ok {
		messages = mp.ValidationMessages()
	}

	seen := make(map[string]bool)
	var out []string
	for _, e := range validationErrors {
		msg, ok := messages[e.Field()+"."+e.Tag()]
		if !ok {
			msg = getErrorMessage(e)
		}
		line := e.Field() + ": " + msg
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}

	return out
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "oneof":
		return "Value must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
