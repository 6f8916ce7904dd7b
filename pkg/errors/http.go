package errors

import (
	"errors"
)

func HTTPStatusCode(err error) int {
	if err == nil {
		return StatusInternalServerError
	}

	switch GetErrorType(err) {
	case ErrorTypeValidation, ErrorTypeInvalidRequest:
		return StatusBadRequest
	case ErrorTypeNotFound:
		return StatusNotFound
	case ErrorTypeConflict:
		return StatusConflict
	case ErrorTypeTooManyRequests:
		return StatusTooManyRequests
	case ErrorTypeRequestTimeout:
		return StatusRequestTimeout
	case ErrorTypeTransport:
		return StatusBadGateway
	case ErrorTypeUnavailable:
		return StatusServiceUnavailable
	default:
		return StatusInternalServerError
	}
}

func GetHumanReadableMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	// SECURITY: wrapped causes (HTTP bodies, API errors) are never echoed.
	return "An unexpected error occurred"
}
