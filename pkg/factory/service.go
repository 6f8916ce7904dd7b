package factory

import (
	"time"

	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type RedisClientProvider interface {
	GetClient() *redis.Client
}

// RateLimiterFactory builds route-scoped limiters that share one backend.
type RateLimiterFactory interface {
	CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	redis  *redis.Client
	logger ratelimit.Logger
}

// NewDefaultRateLimiterFactory uses Redis when cache exposes a client and
// falls back to in-memory buckets otherwise. cache may be nil.
func NewDefaultRateLimiterFactory(cache any, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	var client *redis.Client
	if provider, ok := cache.(RedisClientProvider); ok {
		client = provider.GetClient()
	}

	return &DefaultRateLimiterFactory{redis: client, logger: logger}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Scope:    scope,
		Redis:    f.redis,
		Logger:   f.logger,
	})
}

// FactoryContainer carries shared factories into the domain setup.
type FactoryContainer struct {
	RateLimiterFactory RateLimiterFactory
}

func NewFactoryContainer(cache any, logger ratelimit.Logger) *FactoryContainer {
	return &FactoryContainer{
		RateLimiterFactory: NewDefaultRateLimiterFactory(cache, logger),
	}
}
