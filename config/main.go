package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/internal/transport"
	"github.com/akeren/waitlist-foundry/pkg/constants"
	"github.com/akeren/waitlist-foundry/pkg/factory"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Transport       *transport.Chain
	Factories       *factory.FactoryContainer
	TracingShutdown func(context.Context) error
	StartedAt       time.Time
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests: constants.DefaultRateLimitRequests,
		RateLimitWindow:   constants.DefaultRateLimitWindow(),
		RequestTimeout:    router.DefaultTimeoutDuration,
	}

	if reqStr := os.Getenv("RATE_LIMIT_REQUESTS"); reqStr != "" {
		if parsed, err := strconv.Atoi(reqStr); err == nil && parsed > 0 {
			config.RateLimitRequests = parsed
		}
	}

	if winStr := os.Getenv("RATE_LIMIT_WINDOW"); winStr != "" {
		if parsed, err := time.ParseDuration(winStr); err == nil && parsed > 0 {
			config.RateLimitWindow = parsed
		}
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil && parsed > 0 {
			config.RequestTimeout = parsed
		}
	}

	return config
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	CloseDatabase(ac.DB, ac.Logger)
	CloseCache(ac.Cache, ac.Logger)

	ac.Logger.Info("Application cleanup completed")
}

// OpenOptionalDatabase connects when database settings are present and
// returns a nil handle otherwise.
func OpenOptionalDatabase(logger *log.Logger) (*gorm.DB, error) {
	dbCfg, err := NewDBConfigFromEnv(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, dbCfg)
	if errors.Is(err, ErrDatabaseNotConfigured) {
		logger.Info("Database is not configured; the database transport is disabled")
		return nil, nil
	}
	return db, err
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingCfg, err := LoadTracingConfig()
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger, tracingCfg)
	if err != nil {
		return nil, err
	}

	db, err := OpenOptionalDatabase(logger)
	if err != nil {
		return nil, err
	}

	if autoMigrate && db != nil {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	cacheCfg, err := NewCacheConfig()
	if err != nil {
		return nil, err
	}
	cache := cacheCfg.NewCacheOrNil(logger)

	transportCfg, err := LoadTransportConfig()
	if err != nil {
		return nil, err
	}

	appConfig := NewAppConfig()
	factories := factory.NewFactoryContainer(cache, logger)
	routerService := router.CreateRouterService(logger, factories.RateLimiterFactory, NewRouterConfig(appConfig, tracingCfg))
	chain := NewTransportChain(logger, transportCfg, db, routerService.Registry())

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		Transport:       chain,
		Factories:       factories,
		TracingShutdown: tracingShutdown,
		StartedAt:       time.Now(),
	}, nil
}
