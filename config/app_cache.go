package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	pkgredis "github.com/akeren/waitlist-foundry/pkg/redis"
	"github.com/caarlos0/env/v11"
)

// Cache backs the distributed rate limiter and the health probe.
type Cache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	// Set uses ttl=0 for no expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache host is not configured")

type CacheConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func NewCacheConfig() (*CacheConfig, error) {
	var cfg CacheConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse cache env: %w", err)
	}

	cfg.Host = sanitizeEnv(cfg.Host)
	cfg.Password = sanitizeEnv(cfg.Password)

	return &cfg, nil
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cache (Redis) connected successfully", "addr", cc.Host+":"+cc.Port)
	return cache, nil
}

// NewCacheOrNil degrades to no cache; rate limiting then stays in memory.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; proceeding without external cache")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to create Cache (Redis)", "error", err)
		return nil
	}

	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return
	}

	logger.Info("Cache connection closed")
}
