package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// formatValidationError converts validator errors into a stable,
// user-facing message. Only the first failing field is reported.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "min":
				return "invalid request: " + field + " is too short"
			case "len":
				return "invalid request: " + field + " has the wrong length"
			case "email":
				return "invalid request: " + field + " must be a valid email address"
			case "oneof":
				return "invalid request: " + field + " must be one of " + fe.Param()
			case "gt", "gte":
				return "invalid request: " + field + " is too small"
			case "gtfield":
				return "invalid request: " + field + " must be after " + strings.ToLower(fe.Param())
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}
