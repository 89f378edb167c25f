package validator

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// V10 is the go-playground/validator backed Validator with English messages.
type V10 struct {
	validate *validator.Validate
	trans    ut.Translator
}

type customRule struct {
	fn      validator.Func
	message string
}

var customRules = map[string]customRule{
	"password": {
		fn:      func(fl validator.FieldLevel) bool { return StrongPassword(fl.Field().String()) },
		message: PasswordMessage,
	},
	"otp4": {
		fn:      func(fl validator.FieldLevel) bool { return FourDigits(fl.Field().String()) },
		message: "{0} must be the 4-digit code from the email",
	},
	"digits4": {
		fn:      func(fl validator.FieldLevel) bool { return FourDigits(fl.Field().String()) },
		message: "{0} must be a 4-digit number",
	},
	"alphaspace": {
		message: "{0} can contain only letters and spaces",
	},
}

// NewV10 builds the validator, registering custom rules and translations.
func NewV10() (*V10, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	eng := en.New()
	trans, ok := ut.New(eng, eng).GetTranslator("en")
	if !ok {
		return nil, errors.New("validator: english translator not found")
	}
	if err := entrans.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	for tag, rule := range customRules {
		if rule.fn != nil {
			if err := v.RegisterValidation(tag, rule.fn); err != nil {
				return nil, err
			}
		}
		if err := v.RegisterTranslation(tag, trans, addMessage(tag, rule.message), translate); err != nil {
			return nil, err
		}
	}

	return &V10{validate: v, trans: trans}, nil
}

// Validate returns nil, a ValidationError, or the raw error for invalid arguments.
func (v *V10) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.trans)
	}

	return out
}

// fieldName reports fields by their json name, or snake_case of the Go name.
func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return lo.SnakeCase(f.Name)
	default:
		return name
	}
}

func addMessage(tag, msg string) validator.RegisterTranslationsFunc {
	return func(t ut.Translator) error {
		return t.Add(tag, msg, true)
	}
}

func translate(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Tag(), fe.Field())
	if err != nil {
		slog.Warn("validator: missing translation", "tag", fe.Tag(), "error", err)
		return fe.Error()
	}
	return msg
}
