package core

// validation.go validates operator-supplied payloads such as item patches and
// import batches before they reach a store.

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps a configured validator instance.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a validator that reports JSON field names, compares
// decimals numerically and understands the notblank tag.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d, ok := f.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.InexactFloat64()
	}, decimal.Decimal{})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// Struct validates s using its tags.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// ValidatePatch checks an item patch. Failures wrap ErrInvalidField and
// name each offending field.
func (v *Validator) ValidatePatch(p ItemPatch) error {
	if p.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidField)
	}
	if err := v.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidField, describe(FormatValidationError(err)))
	}
	return nil
}

// FormatValidationError turns validator errors into a field -> message map
// without leaking Go struct names.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "notblank":
			errs[field] = "Must not be blank"
		case "max":
			if e.Kind() == reflect.String {
				errs[field] = fmt.Sprintf("Must be at most %s characters", e.Param())
			} else {
				errs[field] = fmt.Sprintf("Must be at most %s", e.Param())
			}
		case "min", "gte":
			errs[field] = fmt.Sprintf("Must be at least %s", e.Param())
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

func describe(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
