package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagMessages = map[string]string{
	"required":    "This field is required",
	"email":       "Invalid email format",
	"min":         "Value is too short",
	"max":         "Value is too long",
	"url":         "Invalid URL format",
	"uri":         "Invalid URI format",
	"printascii":  "Value must contain printable ASCII characters only",
	"excludesall": "Value contains forbidden characters",
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must not exceed %s characters", fe.Param())
	}

	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

// jsonFieldName maps a struct field to the name clients see in the payload.
func jsonFieldName(structType reflect.Type, fieldName string) string {
	if structType == nil {
		return fieldName
	}

	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fieldName
	}
	return name
}

// FormatValidationErrors turns binding and validator errors into per-field
// messages. It returns an empty slice for any other error.
func FormatValidationErrors(err error, model interface{}) []ValidationErrorResponse {
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	out := make([]ValidationErrorResponse, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, ValidationErrorResponse{
			Field:   jsonFieldName(structType, fe.StructField()),
			Message: messageFor(fe),
		})
	}

	return out
}
