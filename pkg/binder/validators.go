package binder

import (
	"net/url"

	"github.com/go-playground/validator/v10"
)

// urlValidator ensures the value is an absolute http(s) URL or the empty
// string. The empty string is allowed so the validator can be used on fields
// that clear out values; add `ne=` to the validate tag to require a value.
func urlValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// yearValidator bounds trading-card release years. Zero is allowed for
// optional fields; the first widely tracked sets are from the 1880s tobacco
// era, so anything in the 1800s onward is accepted.
func yearValidator(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	if value == 0 {
		return true
	}
	return value >= 1800 && value <= 2100
}
