package handler

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom binding rules on gin's
// validator engine. Field names in error messages come from the json
// tag so they match the wire format.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", validUsername)
	_ = v.RegisterValidation("future", futureTimestamp)
}

// validUsername enforces 8-32 alphanumeric characters with at least one
// uppercase letter, one lowercase letter and one digit. RE2 has no
// lookaheads, so the containment checks are spelled out.
func validUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()
	if len(username) < 8 || len(username) > 32 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range username {
		switch {
		case char >= 'A' && char <= 'Z':
			hasUpper = true
		case char >= 'a' && char <= 'z':
			hasLower = true
		case char >= '0' && char <= '9':
			hasDigit = true
		default:
			return false
		}
	}

	return hasUpper && hasLower && hasDigit
}

func futureTimestamp(fl validator.FieldLevel) bool {
	timestamp, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return timestamp.After(time.Now())
}
