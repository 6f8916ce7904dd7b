package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...any)
}

// RateLimiter is implemented by the in-memory and Redis strategies.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

// InMemoryRateLimiter keeps one token bucket per key. Suitable for a single instance.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		perSecond := float64(r.requests) / r.window.Seconds()
		k = &keyedLimiter{
			limiter:  rate.NewLimiter(rate.Limit(perSecond), r.requests),
			lastSeen: now,
		}
		r.limiters[key] = k
	} else {
		k.lastSeen = now
	}

	// Sweep idle keys every 1024 calls.
	r.ops++
	if r.ops%1024 == 0 {
		cutoff := now.Add(-2 * r.window)
		for kKey, kVal := range r.limiters {
			if kVal.lastSeen.Before(cutoff) {
				delete(r.limiters, kKey)
			}
		}
	}

	return !k.limiter.Allow(), nil
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expire = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, member)
redis.call('EXPIRE', key, expire)

return 0
`

// RedisRateLimiter implements a sliding window shared by every instance.
type RedisRateLimiter struct {
	client    *redis.Client
	script    *redis.Script
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}

	return &RedisRateLimiter{
		client:    client,
		script:    redis.NewScript(slidingWindowScript),
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	fullKey := r.keyPrefix + key
	now := time.Now().Unix()

	result, err := r.script.Run(ctx, r.client, []string{fullKey},
		now,
		int64(r.window.Seconds()),
		r.requests,
		int64((r.window * 2).Seconds()),
		uuid.NewString(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter redis: %w", err)
	}

	return result == 1, nil
}

// Close is a no-op; the Redis client belongs to the application cache.
func (r *RedisRateLimiter) Close() error {
	return nil
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Scope separates the Redis keys of limiters that share a client.
	Scope  string
	Redis  *redis.Client
	Logger Logger
}

// NewRateLimiter returns the Redis strategy when a client is configured and
// the in-memory strategy otherwise.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		prefix := "ratelimit:"
		if config.Scope != "" {
			prefix = "ratelimit:" + config.Scope + ":"
		}
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, prefix, config.Logger)
	}

	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
