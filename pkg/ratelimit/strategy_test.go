package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateLimiter_IsLimited_IsPerKey(t *testing.T) {
	ctx := context.Background()
	limiter := NewInMemoryRateLimiter(1, time.Second)

	limited, err := limiter.IsLimited(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, limited, "first request for client-a should pass")

	limited, err = limiter.IsLimited(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, limited, "second immediate request for client-a should be limited")

	limited, err = limiter.IsLimited(ctx, "client-b")
	require.NoError(t, err)
	assert.False(t, limited, "client-b has its own bucket")
}

func TestInMemoryRateLimiter_EmptyKeyIsBucketed(t *testing.T) {
	ctx := context.Background()
	limiter := NewInMemoryRateLimiter(1, time.Minute)

	limited, err := limiter.IsLimited(ctx, "")
	require.NoError(t, err)
	assert.False(t, limited)

	limited, err = limiter.IsLimited(ctx, "")
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestNewRateLimiter_SelectsStrategy(t *testing.T) {
	inMemory := NewRateLimiter(&RateLimitConfig{Requests: 30, Window: time.Minute})
	assert.IsType(t, &InMemoryRateLimiter{}, inMemory)

	requests, window := inMemory.GetLimitDetails()
	assert.Equal(t, 30, requests)
	assert.Equal(t, time.Minute, window)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	distributed := NewRateLimiter(&RateLimitConfig{Requests: 5, Window: time.Minute, Scope: "waitlist", Redis: client})
	require.IsType(t, &RedisRateLimiter{}, distributed)
	assert.Equal(t, "ratelimit:waitlist:", distributed.(*RedisRateLimiter).keyPrefix)
}

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}

func TestRedisRateLimiter_ReportsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	logger := &recordingLogger{}
	limiter := NewRedisRateLimiter(client, 1, time.Minute, "", logger)

	limited, err := limiter.IsLimited(context.Background(), "client-a")
	require.Error(t, err)
	assert.False(t, limited)
	assert.Len(t, logger.messages, 1)
}
