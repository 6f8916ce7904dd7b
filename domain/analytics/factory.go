package analytics

import (
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	"github.com/akeren/waitlist-foundry/pkg/factory"
)

type AnalyticsServiceFactory interface {
	CreateService() AnalyticsService
	CreateController() *router.RESTController
}

type DefaultAnalyticsServiceFactory struct {
	chain    *transport.Chain
	logger   *log.Logger
	limiters factory.RateLimiterFactory
}

// NewAnalyticsServiceFactory accepts a nil limiters factory when only
// CreateService is used, as the CLI does.
func NewAnalyticsServiceFactory(chain *transport.Chain, logger *log.Logger, limiters factory.RateLimiterFactory) AnalyticsServiceFactory {
	return &DefaultAnalyticsServiceFactory{
		chain:    chain,
		logger:   logger,
		limiters: limiters,
	}
}

func (f *DefaultAnalyticsServiceFactory) CreateService() AnalyticsService {
	return NewAnalyticsService(f.logger, NewAnalyticsRepository(f.chain))
}

func (f *DefaultAnalyticsServiceFactory) CreateController() *router.RESTController {
	return NewAnalyticsController(f.chain, f.logger, f.limiters)
}
