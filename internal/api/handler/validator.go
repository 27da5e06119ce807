package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// fieldLabels are the human names used in validation messages.
var fieldLabels = map[string]string{
	"name":     "Name",
	"email":    "Email",
	"password": "Password",
	"role":     "Role",
	"phone":    "Phone number",
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Besides the built-in tags it understands phone10 (ten digits after trimming).
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return domain.ValidPhone(strings.TrimSpace(fl.Field().String()))
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Field failures come back
// as *domain.ValidationError.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := &domain.ValidationError{}
			for _, fe := range ve {
				out.Add(fe.Field(), fieldError(fe))
			}
			return out
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot be more than %s characters", label, fe.Param())
	case "oneof":
		opts := strings.Fields(fe.Param())
		for i, o := range opts {
			opts[i] = `"` + o + `"`
		}
		return fmt.Sprintf("%s must be either %s", label, strings.Join(opts, " or "))
	case "phone10":
		return "Please provide a valid 10-digit phone number"
	default:
		return fmt.Sprintf("%s failed validation (%s)", label, fe.Tag())
	}
}
