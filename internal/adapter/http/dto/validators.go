package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\./]+$`)
	currencyRe   = regexp.MustCompile(`^[A-Za-z]{3}$`)
	moneyRe      = regexp.MustCompile(`^\d{1,16}(\.\d{1,2})?$`)
	rateRe       = regexp.MustCompile(`^\d{1,3}(\.\d{1,4})?$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidations(v)
	}
}

// RegisterValidations installs the custom tags used by the request types.
func RegisterValidations(v *validator.Validate) {
	_ = v.RegisterValidation("safe_id", validateSafeID)
	_ = v.RegisterValidation("currency", validateCurrency)
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("rate", validateRate)
}

// validateSafeID allows alphanumeric, underscore, dash, dot and slash.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateCurrency accepts a three-letter ISO 4217 style code in any case.
func validateCurrency(fl validator.FieldLevel) bool {
	return currencyRe.MatchString(fl.Field().String())
}

// validateMoney accepts a positive decimal string with at most two fractional digits.
func validateMoney(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if !moneyRe.MatchString(raw) {
		return false
	}
	d, err := decimal.NewFromString(raw)
	return err == nil && d.IsPositive()
}

// validateRate accepts a non-negative annual percentage up to 100.
func validateRate(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if !rateRe.MatchString(raw) {
		return false
	}
	d, err := decimal.NewFromString(raw)
	return err == nil && d.LessThanOrEqual(decimal.NewFromInt(100))
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer, descending into embedded structs.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Struct:
			if rv.Type().Field(i).Anonymous {
				sanitizeFields(f)
			}
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
