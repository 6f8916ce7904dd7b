package waitlist

import (
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	"github.com/akeren/waitlist-foundry/pkg/factory"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	chain    *transport.Chain
	logger   *log.Logger
	limiters factory.RateLimiterFactory
}

func NewWaitlistServiceFactory(chain *transport.Chain, logger *log.Logger, limiters factory.RateLimiterFactory) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		chain:    chain,
		logger:   logger,
		limiters: limiters,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return NewWaitlistService(f.logger, NewWaitlistRepository(f.chain))
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.chain, f.logger, f.limiters)
}
