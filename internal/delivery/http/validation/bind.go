package validation

import (
	"errors"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate decodes the request body into out and runs struct validation.
// Failures come back as *domain.ValidationError keyed by JSON field name.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return domain.NewValidationError("body", "invalid request body: "+err.Error())
	}
	return Struct(v, out)
}

func Struct(v *validatorv10.Validate, out interface{}) error {
	err := v.Struct(out)
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewValidationError("body", err.Error())
	}
	verr := &domain.ValidationError{}
	for _, fe := range ve {
		verr.Add(fieldName(fe), message(fe))
	}
	return verr
}

func fieldName(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "alphanumspace":
		return "may contain only letters, digits and spaces"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	case "max":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed on " + fe.Tag()
}
