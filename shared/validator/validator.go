package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"hallbook/shared/constant"
	"hallbook/shared/failure"

	"github.com/gabriel-vasile/mimetype"
	val "github.com/go-playground/validator/v10"
)

const bytesPerMB = 1024 * 1024

var validate = newValidate()

// mimetypes matches raw file content against the space separated types in the
// tag parameter. The type is sniffed from the bytes, so a renamed file does
// not pass.
func mimetypes(field val.FieldLevel) bool {
	data, ok := field.Field().Interface().([]byte)
	if !ok || len(data) == 0 {
		return false
	}

	detected := mimetype.Detect(data)

	for _, allowed := range strings.Fields(field.Param()) {
		if detected.Is(allowed) {
			return true
		}
	}

	return false
}

func maxFileSize(field val.FieldLevel) bool {
	data, ok := field.Field().Interface().([]byte)
	if !ok {
		return false
	}

	maxSizeMB, err := strconv.ParseFloat(field.Param(), 64)
	if err != nil {
		return false
	}

	return len(data) <= int(maxSizeMB*bytesPerMB)
}

func newValidate() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())

	// messages name fields the way clients send them
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}

		return name
	})

	for tag, fn := range map[string]val.Func{
		"mimetypes":   mimetypes,
		"maxfilesize": maxFileSize,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

// Validate decodes a JSON body into data and validates it. Both failures
// come back as 400s.
func Validate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err, "")) //nolint:wrapcheck
	}

	return nil
}

// ValidateVar checks a single value, such as a query parameter, reporting
// failures under name.
// ValidateSortBy accepts an empty sort_by or one of the space separated
// columns in allowed.
func ValidateSortBy(sortBy, allowed string) error {
	return ValidateVar(sortBy, constant.RequestParamSortBy, "omitempty,oneof="+allowed)
}

func ValidateVar(value any, name, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return failure.BadRequestFromString(message(err, name)) //nolint:wrapcheck
	}

	return nil
}
