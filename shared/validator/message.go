package validator

import (
	"errors"
	"strings"
	"unicode"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":    "{field} is required",
	"oneof":       "{field} must be one of {param}",
	"max":         "{field} must be less than or equal to {param}",
	"min":         "{field} must be greater than or equal to {param}",
	"email":       "{field} must be a valid email address",
	"gtfield":     "{field} must be after {param}",
	"nefield":     "{field} must differ from {param}",
	"uuid":        "{field} must be a valid UUID",
	"mimetypes":   "{field} must be one of the following types: {param}",
	"maxfilesize": "{field} must not exceed {param} MB",
}

// crossField tags carry a Go field name as their param.
var crossField = map[string]bool{
	"gtfield": true,
	"nefield": true,
}

// message renders the first failed rule. name replaces the field for
// single value checks, which have none.
func message(err error, name string) string {
	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) {
		return err.Error()
	}

	for _, valErr := range valErrors {
		template, ok := messages[valErr.Tag()]
		if !ok {
			continue
		}

		field := valErr.Field()
		if name != "" {
			field = name
		}

		param := valErr.Param()
		if crossField[valErr.Tag()] {
			param = snakeCase(param)
		}

		return strings.NewReplacer("{field}", field, "{param}", param).Replace(template)
	}

	return valErrors.Error()
}

// snakeCase turns StartTime into start_time so cross field messages match the
// JSON names.
func snakeCase(name string) string {
	var b strings.Builder

	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}

			r = unicode.ToLower(r)
		}

		b.WriteRune(r)
	}

	return b.String()
}
