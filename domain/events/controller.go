package events

import (
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/factory"
)

const trackRequestsPerMinute = 120

func NewEventController(
	chain *transport.Chain,
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
) *router.RESTController {
	return router.NewVersionedRESTController(
		"EventController",
		"v1",
		"/events",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewEventService(logger, NewEventRepository(chain))
			trackLimiter := limiters.CreateRateLimiter("events", trackRequestsPerMinute, time.Minute)

			rs.AddPostHandler(c, trackLimiter, "", trackEventHandler(service))
		},
	)
}

func trackEventHandler(service EventService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req TrackEventRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			router.GetLogger(ctx).Error("Failed to bind request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		service.Track(ctx.Request.Context(), req.EventName, req.Page, req.Metadata)

		return router.AcceptedResult(TrackEventResponse{Accepted: true}, "Event accepted")
	}
}
