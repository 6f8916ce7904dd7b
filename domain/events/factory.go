package events

import (
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	"github.com/akeren/waitlist-foundry/pkg/factory"
)

type EventServiceFactory interface {
	CreateService() EventService
	CreateController() *router.RESTController
}

type DefaultEventServiceFactory struct {
	chain    *transport.Chain
	logger   *log.Logger
	limiters factory.RateLimiterFactory
}

func NewEventServiceFactory(chain *transport.Chain, logger *log.Logger, limiters factory.RateLimiterFactory) EventServiceFactory {
	return &DefaultEventServiceFactory{
		chain:    chain,
		logger:   logger,
		limiters: limiters,
	}
}

func (f *DefaultEventServiceFactory) CreateService() EventService {
	return NewEventService(f.logger, NewEventRepository(f.chain))
}

func (f *DefaultEventServiceFactory) CreateController() *router.RESTController {
	return NewEventController(f.chain, f.logger, f.limiters)
}
