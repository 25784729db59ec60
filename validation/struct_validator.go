package validation

import (
	stderrors "errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/wskit/errors"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func structs() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(tagName)
		mustRegister(v, "http_method", func(fl validator.FieldLevel) bool {
			return IsHTTPMethod(fl.Field().String())
		})
		mustRegister(v, "abs_http_url", func(fl validator.FieldLevel) bool {
			return IsAbsoluteHTTPURL(fl.Field().String())
		})
		structValidator = v
	})
	return structValidator
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: registering " + tag + ": " + err.Error())
	}
}

// tagName reports a field by its config key so messages read like the
// YAML the user wrote.
func tagName(fld reflect.StructField) string {
	for _, tag := range []string{"yaml", "mapstructure", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return snakeCase(fld.Name)
}

// Validate checks s against its `validate` tags. Besides the built-in tags
// it understands http_method and abs_http_url.
func Validate(s any) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}
	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: describe(fe)}
	}
	return fieldsError(fields)
}

// IsHTTPMethod reports whether m is a non-empty RFC 7230 token.
func IsHTTPMethod(m string) bool {
	return m != "" && strings.IndexFunc(m, func(r rune) bool { return !httpguts.IsTokenRune(r) }) < 0
}

// IsAbsoluteHTTPURL reports whether raw is an http or https URL with a host.
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "abs_http_url", "url":
		return "must be an absolute http(s) URL"
	case "http_method":
		return "must be a valid HTTP method token"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

// snakeCase lowers Go field names: MaxRetries -> max_retries.
func snakeCase(s string) string {
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
