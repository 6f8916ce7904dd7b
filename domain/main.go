package domain

import (
	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/domain/analytics"
	"github.com/akeren/waitlist-foundry/domain/events"
	"github.com/akeren/waitlist-foundry/domain/monitoring"
	"github.com/akeren/waitlist-foundry/domain/waitlist"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	limiters := appConfig.Factories.RateLimiterFactory
	chain := appConfig.Transport
	logger := appConfig.Logger

	monitoringDeps := monitoring.Dependencies{
		DB:        appConfig.DB,
		Logger:    logger,
		Transport: chain,
		Limiters:  limiters,
		StartedAt: appConfig.StartedAt,
	}
	if appConfig.Cache != nil {
		monitoringDeps.Cache = appConfig.Cache
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringControllerFactory(monitoringDeps).CreateController())
	appConfig.RouterService.MountController(waitlist.NewWaitlistServiceFactory(chain, logger, limiters).CreateController())
	appConfig.RouterService.MountController(events.NewEventServiceFactory(chain, logger, limiters).CreateController())
	appConfig.RouterService.MountController(analytics.NewAnalyticsServiceFactory(chain, logger, limiters).CreateController())
}
