package router

import (
	"net/http"

	"github.com/akeren/waitlist-foundry/internal/log"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
)

var fallbackLogger = log.NewLoggerWithJSONOutput()

// GetLogger returns the request-scoped logger injected by the router, or a
// correlated fallback when the handler runs outside the middleware chain.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), fallbackLogger)
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    message,
	}
}

func CreatedResult(data any, resourceName string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusCreated,
		Data:       data,
		Message:    resourceName + " created successfully",
	}
}

func AcceptedResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusAccepted,
		Data:       data,
		Message:    message,
	}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusTooManyRequests,
		Data:       data,
		Message:    "Too Many Requests",
	}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusBadRequest,
		Data:       payload,
		Message:    message,
	}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusNotFound,
		Data:       nil,
		Message:    message,
	}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Data:       nil,
		Message:    message,
	}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

// ResultFromError maps an application error onto the response envelope.
// Wrapped causes are never exposed.
func ResultFromError(err error) *ServiceResult {
	return ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), nil)
}
