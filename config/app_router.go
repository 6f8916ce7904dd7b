package config

import (
	"os"
	"strings"

	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/pkg/utils"
)

// NewRouterConfig resolves the HTTP surface settings from the environment.
func NewRouterConfig(appConfig *AppConfig, tracing *TracingConfig) *router.RouterConfig {
	appEnv := GetAppEnv()

	port := utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")

	cfg := &router.RouterConfig{
		Addr:              ":" + strings.TrimPrefix(port, ":"),
		GinMode:           utils.GetEnvTrimmed("GIN_MODE"),
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
		TrustedProxies:    router.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES")),
		MaxBodyBytes:      utils.GetEnvInt64("MAX_REQUEST_BODY_BYTES", router.DefaultMaxBodyBytes),
		AllowedOrigins:    router.ParseAllowedOrigins(os.Getenv("CORS_ALLOWED_ORIGIN")),
		HSTS: router.HSTSConfig{
			Enabled:           utils.GetEnvBool("HSTS_ENABLED", IsProductionEnv(appEnv)),
			MaxAge:            utils.GetEnvInt64("HSTS_MAX_AGE", router.DefaultHSTSMaxAge),
			IncludeSubdomains: utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true),
		},
		MetricsEnabled: utils.GetEnvBool("METRICS_ENABLED", true),
	}

	if tracing != nil && tracing.Enabled {
		cfg.TracingServiceName = tracing.ServiceName
	}

	return cfg
}
