package analytics

import (
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	"github.com/akeren/waitlist-foundry/pkg/factory"
)

// Each request is a full read of the sheet, which counts against the
// Sheets API quota.
const readRequestsPerMinute = 60

func NewAnalyticsController(
	chain *transport.Chain,
	logger *log.Logger,
	limiters factory.RateLimiterFactory,
) *router.RESTController {
	return router.NewVersionedRESTController(
		"AnalyticsController",
		"v1",
		"/analytics",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewAnalyticsService(logger, NewAnalyticsRepository(chain))
			readLimiter := limiters.CreateRateLimiter("analytics", readRequestsPerMinute, time.Minute)

			rs.AddGetHandler(c, readLimiter, "", func(ctx *router.RequestContext) *router.ServiceResult {
				return router.OKResult(service.Fetch(ctx.Request.Context()), "Analytics retrieved successfully")
			})

			rs.AddGetHandler(c, readLimiter, "summary", func(ctx *router.RequestContext) *router.ServiceResult {
				return router.OKResult(service.Summary(ctx.Request.Context()), "Analytics summary retrieved successfully")
			})
		},
	)
}
