package waitlist

import (
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/factory"
)

const joinRequestsPerMinute = 30

func NewWaitlistController(
	chain *transport.Chain,
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
) *router.RESTController {
	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewWaitlistService(logger, NewWaitlistRepository(chain))
			joinLimiter := limiters.CreateRateLimiter("waitlist", joinRequestsPerMinute, time.Minute)

			rs.AddPostHandler(c, joinLimiter, "", joinWaitlistHandler(service))
		},
	)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		response, err := service.Join(ctx.Request.Context(), &req)
		if err != nil {
			if apperrors.IsValidationError(err) {
				return router.BadRequestResult(apperrors.GetHumanReadableMessage(err), apperrors.FormatValidationErrors(err, &req))
			}
			return router.ResultFromError(err)
		}

		return router.CreatedResult(response, "Waitlist entry")
	}
}
