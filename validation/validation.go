package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"users-server/apperrors"

	"github.com/go-playground/validator/v10"
)

// The same "binding" tags gin checks at the HTTP edge are checked again here
// so repositories and the auth provider can validate input that did not come
// through gin.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
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
	return v
}

// Struct validates s and returns a per-field validation AppError.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return FromValidator(err)
}

// FromValidator converts validator (and gin binding) errors into an AppError.
// Other errors become a bad request.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewBadRequestError(err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = describe(fe)
	}
	return apperrors.NewFieldsError(fields)
}

func fieldName(fe validator.FieldError) string {
	if fe.Field() != fe.StructField() {
		return fe.Field()
	}
	return toSnake(fe.Field())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
