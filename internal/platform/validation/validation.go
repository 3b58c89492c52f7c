// Package validation holds the form rules shared by every page: Indonesian
// national ID numbers, phone numbers, e-mail addresses and required fields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsOnly   = regexp.MustCompile(`^[0-9]+$`)
)

const (
	MsgNIK        = "NIK must be exactly 16 digits and contain only numbers"
	MsgPhoneDigit = "Phone number must contain only numbers"
	MsgPhoneLen   = "Phone number must be between 11 and 13 digits"
	MsgPhonePfx   = "Invalid Phone Number, must start with '08'"
	MsgEmail      = "Invalid email format"
)

// NIK checks a 16 digit national identity number.
func NIK(s string) error {
	if len(s) != 16 || !digitsOnly.MatchString(s) {
		return errors.New(MsgNIK)
	}
	return nil
}

// Phone checks an Indonesian mobile number: digits only, 11 to 13 long,
// starting with 08.
func Phone(s string) error {
	if !digitsOnly.MatchString(s) {
		return errors.New(MsgPhoneDigit)
	}
	if len(s) < 11 || len(s) > 13 {
		return errors.New(MsgPhoneLen)
	}
	if !strings.HasPrefix(s, "08") {
		return errors.New(MsgPhonePfx)
	}
	return nil
}

func Email(s string) error {
	if !emailPattern.MatchString(s) {
		return errors.New(MsgEmail)
	}
	return nil
}

// FieldErrors maps a form field to its first failing message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// First returns one message, preferring the given field order.
func (fe FieldErrors) First(order ...string) string {
	for _, k := range order {
		if msg, ok := fe[k]; ok {
			return msg
		}
	}
	for _, v := range fe {
		return v
	}
	return ""
}

// Validator wraps go-playground/validator with the custom rules registered.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nik", func(fl validator.FieldLevel) bool {
		return NIK(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("phoneid", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("emailbasic", func(fl validator.FieldLevel) bool {
		return Email(fl.Field().String()) == nil
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator. A failure is returned as FieldErrors.
func (val *Validator) Validate(i interface{}) error {
	err := val.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "nik":
		return MsgNIK
	case "phoneid":
		return Phone(fmt.Sprint(fe.Value())).Error()
	case "emailbasic", "email":
		return MsgEmail
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	}
	return label + " is invalid"
}

func humanize(field string) string {
	switch field {
	case "nik":
		return "NIK"
	case "no_rm":
		return "Medical record number"
	case "no_registrasi":
		return "Registration number"
	case "number_phone", "phone":
		return "Phone number"
	case "role_id":
		return "Role"
	}
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TrimStrings trims surrounding whitespace from every string field of the
// struct v points to, so that "required" also rejects blank input. Fields
// tagged trim:"false" are left alone.
func TrimStrings(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return
	}
	trimStruct(rv.Elem())
}

func trimStruct(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Tag.Get("trim") == "false" {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Struct:
			if sf.Anonymous {
				trimStruct(f)
			}
		}
	}
}
