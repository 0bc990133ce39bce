package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"inmuebles-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// emailRe is the loose shape check used by the public forms: something@something.tld
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON name so messages match the payload.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
	})
	return validate
}

// Messages overrides the generic message for a field, keyed by its dotted
// JSON path (e.g. "titulo", "precio.valor").
type Messages map[string]string

// Struct validates v and returns the first failing field as a
// *domain.ValidationError, or nil.
func Struct(v interface{}, msgs Messages) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", "Datos inválidos.")
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	if m, ok := msgs[field]; ok {
		return domain.NewValidationError(field, m)
	}
	return domain.NewValidationError(field, genericMessage(field, fe))
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func genericMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("El campo %s es obligatorio.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("El campo %s debe tener al menos %s caracteres.", field, fe.Param())
		}
		return fmt.Sprintf("El campo %s debe ser al menos %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("El campo %s admite máximo %s caracteres.", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("El campo %s admite máximo %s elementos.", field, fe.Param())
		}
		return fmt.Sprintf("El campo %s debe ser como máximo %s.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("El campo %s debe ser mayor que %s.", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("El campo %s está fuera de rango.", field)
	case "oneof":
		return fmt.Sprintf("El campo %s debe ser uno de: %s.", field, fe.Param())
	case "email", "looseemail":
		return "El correo electrónico no es válido."
	case "url":
		return fmt.Sprintf("El campo %s debe ser una URL válida.", field)
	}
	return fmt.Sprintf("El campo %s no es válido.", field)
}
