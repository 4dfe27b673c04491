package http

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// non-negative money with at most 2 decimal places, sent as a string
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, places, ok := parseDecimal(fl.Field().String())
		return ok && !d.IsNegative() && places <= 2
	})
	// signed, non-zero money (ledger adjustments)
	_ = v.RegisterValidation("signedmoney", func(fl validator.FieldLevel) bool {
		d, places, ok := parseDecimal(fl.Field().String())
		return ok && !d.IsZero() && places <= 2
	})
	// annual percentage rate, up to 4 decimal places
	_ = v.RegisterValidation("rate", func(fl validator.FieldLevel) bool {
		d, places, ok := parseDecimal(fl.Field().String())
		return ok && !d.IsNegative() && places <= 4
	})
	// calendar date, YYYY-MM-DD
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// parseDecimal also reports the significant decimal places ("12.50" has 1).
// Exponent notation is rejected.
func parseDecimal(s string) (decimal.Decimal, int, bool) {
	if strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, 0, false
	}
	places := 0
	if _, frac, ok := strings.Cut(s, "."); ok {
		places = len(strings.TrimRight(frac, "0"))
	}
	return d, places, true
}

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "money":
			out = append(out, FieldError{Field: field, Message: "must be a non-negative decimal string with at most 2 decimal places"})
		case "signedmoney":
			out = append(out, FieldError{Field: field, Message: "must be a non-zero decimal string with at most 2 decimal places"})
		case "rate":
			out = append(out, FieldError{Field: field, Message: "must be a non-negative decimal string with at most 4 decimal places"})
		case "date":
			out = append(out, FieldError{Field: field, Message: "must be a date formatted YYYY-MM-DD"})
		case "oneof":
			out = append(out, FieldError{Field: field, Message: "must be one of: " + e.Param()})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
