// Package validation checks request payloads against the rules declared in
// their `validate` struct tags and turns every violation into one readable
// message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

const passwordSpecials = "@$!%*?&"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	must(v.RegisterValidation("password", isPassword))
	must(v.RegisterValidation("scalar", isScalar, true))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// isPassword wants at least one lower case letter, one upper case letter,
// one digit and one of the special characters.
func isPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// isScalar accepts what a JSON string, number or boolean decodes to.
func isScalar(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.String, reflect.Bool, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Violations are all the rule violations found in one payload.
type Violations struct {
	errs *multierror.Error
}

func (v *Violations) Error() string {
	return "Validation failed: " + v.errs.Error()
}

func (v *Violations) Unwrap() error {
	return v.errs
}

// Messages returns one "path: message" entry per violation.
func (v *Violations) Messages() []string {
	msgs := make([]string, len(v.errs.Errors))
	for i, err := range v.errs.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

func listFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, ", ")
}

// Struct validates s, which must be a pointer to a struct.
// It returns a *Violations listing every broken rule, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	result := &multierror.Error{ErrorFormat: listFormat}
	for _, fe := range fieldErrs {
		result = multierror.Append(result, fmt.Errorf("%s: %s", path(fe), message(fe)))
	}
	return &Violations{result}
}

// path drops the name of the top level struct from the namespace.
func path(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		switch {
		case isList:
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		default:
			return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		}
	case "max":
		switch {
		case isList:
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("cannot exceed %s characters", fe.Param())
		default:
			return fmt.Sprintf("must be less than or equal to %s", fe.Param())
		}
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "password":
		return "must contain at least one uppercase letter, one lowercase letter, one number, and one special character (" + passwordSpecials + ")"
	case "scalar":
		return "must be a string, number or boolean"
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
