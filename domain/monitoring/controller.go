package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/factory"
	"gorm.io/gorm"
)

const monitoringRequestsPerMinute = 10

type Cache interface {
	Ping(ctx context.Context) error
}

// TransportStatus is satisfied by *transport.Chain.
type TransportStatus interface {
	Configured() bool
	States() map[string]string
}

type HealthStatus struct {
	Database   int               `json:"database"` // 1 = healthy, 0 = unhealthy or not configured
	Cache      int               `json:"cache"`
	Storage    int               `json:"storage"` // 1 when at least one row transport is configured
	Transports map[string]string `json:"transports"`
	Uptime     int               `json:"uptime"` // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	transport TransportStatus
	startTime time.Time
}

func NewMonitoringController(deps Dependencies) *router.RESTController {
	ctrl := &MonitoringController{
		db:        deps.DB,
		logger:    deps.Logger,
		cache:     deps.Cache,
		transport: deps.Transport,
		startTime: deps.StartedAt,
	}
	if ctrl.startTime.IsZero() {
		ctrl.startTime = time.Now()
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			limiter := deps.Limiters.CreateRateLimiter("monitoring", monitoringRequestsPerMinute, time.Minute)

			routerService.AddGetHandler(controller, limiter, "", ctrl.monitor)
			routerService.AddGetHandler(controller, limiter, "health", ctrl.healthCheck)
		},
	)
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)
	status := ctrl.performHealthChecks(c.Request.Context(), logger)

	return router.OKResult(status, "waitlist-foundry health check completed")
}

func (ctrl *MonitoringController) monitor(c *router.RequestContext) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       "Monitoring endpoint is operational.",
		Message:    "Monitoring successful",
	}
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime:     int(time.Since(ctrl.startTime).Seconds()),
		Transports: map[string]string{},
	}

	status.Database = boolToInt(ctrl.checkDatabase(ctx))
	status.Cache = boolToInt(ctrl.checkCache(ctx))

	if ctrl.transport != nil && ctrl.transport.Configured() {
		status.Storage = 1
		status.Transports = ctrl.transport.States()
	}

	logger.Info("Health check completed",
		"database", status.Database,
		"cache", status.Cache,
		"storage", status.Storage,
	)

	return status
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}

func (ctrl *MonitoringController) checkCache(ctx context.Context) bool {
	if ctrl.cache == nil {
		return false
	}

	return ctrl.cache.Ping(ctx) == nil
}

func boolToInt(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

// Dependencies groups what the monitoring endpoints probe.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Cache     Cache
	Transport TransportStatus
	Limiters  factory.RateLimiterFactory
	StartedAt time.Time
}
