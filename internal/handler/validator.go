package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
)

// Validator adapts go-playground/validator to echo's Validator interface,
// turning rule failures into field-level validation errors.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var ruleErrs validator.ValidationErrors
	if !errors.As(err, &ruleErrs) {
		return domain.Internal(err)
	}
	fields := make(map[string]string, len(ruleErrs))
	for _, fe := range ruleErrs {
		fields[strings.ToLower(fe.Field())] = describeRule(fe)
	}
	return domain.ValidationError(fields)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// bind decodes and validates a request body in one step.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return &domain.Error{Code: domain.CodeBadRequest, Message: "malformed request body", Err: err}
	}
	return c.Validate(v)
}
