package handler

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode"

	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	minPasswordLength    = 6
	minStrongPasswordLen = 8
)

// Validator checks request DTOs against their validate tags and reports
// failures as *autherror.ValidationError.
type Validator struct {
	validate   *validator.Validate
	production bool
}

func NewValidator(production bool) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("password", passwordRule(production))
	_ = v.RegisterValidation("avatar", avatarRule)

	return &Validator{validate: v, production: production}
}

func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, v.message(fe))
	}
	return &autherror.ValidationError{Details: details}
}

// Bind parses the request body into out and validates it.
func (v *Validator) Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &autherror.ValidationError{Details: []string{"invalid request body"}}
	}
	return v.Struct(out)
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "password":
		if v.production {
			return fmt.Sprintf("%s must be at least %d characters with upper and lower case letters, a digit and a special character", fe.Field(), minStrongPasswordLen)
		}
		return fmt.Sprintf("%s must be at least %d characters", fe.Field(), minPasswordLength)
	case "avatar":
		return fmt.Sprintf("%s must be an http(s) URL or an image data URI", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func passwordRule(production bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		if !production {
			return len(pw) >= minPasswordLength
		}
		return IsStrongPassword(pw)
	}
}

// IsStrongPassword requires 8+ characters mixing upper case, lower case, digits
// and at least one non-alphanumeric character.
func IsStrongPassword(pw string) bool {
	if len(pw) < minStrongPasswordLen {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func avatarRule(fl validator.FieldLevel) bool {
	return IsAvatarSource(fl.Field().String())
}

// IsAvatarSource accepts http(s) URLs and data:image URIs.
func IsAvatarSource(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
