package validation

import (
	"reflect"
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// letters from any script, digits and spaces: payer names are Vietnamese
var alphaNumSpace = regexp.MustCompile(`^[\p{L}\p{M}\p{N} ]+$`)

// New returns a validator with the gateway's custom tags registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("alphanumspace", func(fl validatorv10.FieldLevel) bool {
		return alphaNumSpace.MatchString(fl.Field().String())
	})
	return v
}
