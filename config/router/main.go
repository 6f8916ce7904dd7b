package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/factory"
	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	DefaultTimeoutDuration = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)
	DefaultHSTSMaxAge      = int64(31536000)
	CorrelationIDHeader    = "X-Correlation-ID"
)

type HSTSConfig struct {
	Enabled           bool
	MaxAge            int64
	IncludeSubdomains bool
}

func (h HSTSConfig) value() string {
	maxAge := h.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultHSTSMaxAge
	}

	v := fmt.Sprintf("max-age=%d", maxAge)
	if h.IncludeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// RouterConfig is resolved by the config package; the router never reads the
// environment itself.
type RouterConfig struct {
	Addr              string
	GinMode           string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	TrustedProxies    []string
	MaxBodyBytes      int64
	AllowedOrigins    []string
	HSTS              HSTSConfig
	MetricsEnabled    bool
	// TracingServiceName enables otelgin when set.
	TracingServiceName string
}

type RouterService struct {
	engine      *gin.Engine
	server      *http.Server
	logger      *log.Logger
	config      *RouterConfig
	rateLimiter ratelimit.RateLimiter
	registry    *prometheus.Registry
	metrics     *metrics

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

func CreateRouterService(logger *log.Logger, limiters factory.RateLimiterFactory, routerConfig *RouterConfig) *RouterService {
	if routerConfig.GinMode != "" {
		logger.Info("Setting Gin mode", "mode", routerConfig.GinMode)
		gin.SetMode(routerConfig.GinMode)
	}
	if routerConfig.RequestTimeout <= 0 {
		routerConfig.RequestTimeout = DefaultTimeoutDuration
	}
	if routerConfig.MaxBodyBytes <= 0 {
		routerConfig.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if routerConfig.Addr == "" {
		routerConfig.Addr = ":8080"
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	if routerConfig.TracingServiceName != "" {
		ginRouter.Use(otelgin.Middleware(routerConfig.TracingServiceName))
		logger.Info("Tracing middleware enabled")
	}

	// Gin trusts every proxy by default, which lets X-Forwarded-For spoof ClientIP.
	if err := ginRouter.SetTrustedProxies(routerConfig.TrustedProxies); err != nil {
		logger.Error("Invalid trusted proxies; disabling", "error", err)
		_ = ginRouter.SetTrustedProxies(nil)
	} else if routerConfig.TrustedProxies == nil {
		logger.Info("Trusted proxies disabled")
	}

	rs := &RouterService{
		engine:                 ginRouter,
		logger:                 logger,
		config:                 routerConfig,
		rateLimiter:            limiters.CreateRateLimiter("global", routerConfig.RateLimitRequests, routerConfig.RateLimitWindow),
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	logger.Info("Rate limiting initialized",
		"requests", routerConfig.RateLimitRequests,
		"window", routerConfig.RateLimitWindow)

	rs.mountMetrics()

	ginRouter.Use(rs.securityHeadersMiddleware())
	ginRouter.Use(rs.maxBodySizeMiddleware())
	ginRouter.Use(rs.corsMiddleware())
	ginRouter.Use(rs.rateLimitMiddleware())
	ginRouter.Use(rs.timeoutMiddleware())

	ginRouter.Use(rs.correlationIDMiddleware())
	ginRouter.Use(rs.loggerInjectionMiddleware())
	ginRouter.Use(rs.requestLoggingMiddleware())

	ginRouter.HandleMethodNotAllowed = true
	ginRouter.RedirectTrailingSlash = true

	ginRouter.NoRoute(func(c *gin.Context) {
		logger.WithCorrelationID(c.Request.Context()).Error("Route not found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, NotFoundResult("Route not found").ToJSON())
	})

	ginRouter.NoMethod(func(c *gin.Context) {
		logger.WithCorrelationID(c.Request.Context()).Error("Method not allowed", "method", c.Request.Method)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(apperrors.StatusMethodNotAllowed, "Method not allowed", nil).ToJSON())
	})

	// Handlers run on the request goroutine, so deadlines are enforced by the
	// server timeouts rather than by the timeout middleware.
	rs.server = &http.Server{
		Addr:              routerConfig.Addr,
		Handler:           ginRouter,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       routerConfig.RequestTimeout,
		WriteTimeout:      routerConfig.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized")
	return rs
}

// ParseTrustedProxies turns a comma separated list into gin's trusted proxy
// list. Empty disables trust; "*" trusts everything.
func ParseTrustedProxies(v string) []string {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	if s == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}

	return splitList(s)
}

// ParseAllowedOrigins splits a comma separated origin list.
func ParseAllowedOrigins(v string) []string {
	return splitList(v)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (routerService *RouterService) GetDefaultRateLimitConfig() (int, time.Duration) {
	return routerService.config.RateLimitRequests, routerService.config.RateLimitWindow
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

// Registry is the Prometheus registry served on /metrics, or nil when
// metrics are disabled.
func (routerService *RouterService) Registry() prometheus.Registerer {
	if routerService.registry == nil {
		return nil
	}
	return routerService.registry
}

func (routerService *RouterService) Cleanup() {
	if err := routerService.rateLimiter.Close(); err != nil {
		routerService.logger.Error("Failed to close rate limiter", "error", err)
	}
	for key, limiter := range routerService.rateLimitOverrides {
		if err := limiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "scope", key, "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	routerService.logger.Info("Mounting controller",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
	)

	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"routes", controller.routes,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(CorrelationIDHeader))
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Request = c.Request.WithContext(log.ContextWithCorrelationID(c.Request.Context(), id))
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlatedLogger := routerService.logger.WithCorrelationID(c.Request.Context())
		c.Request = c.Request.WithContext(log.ContextWithLogger(c.Request.Context(), correlatedLogger))
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		routerService.logger.WithCorrelationID(c.Request.Context()).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	hsts := routerService.config.HSTS

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if hsts.Enabled && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hsts.value())
		}
		c.Next()
	}
}

func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	// TLS terminated at a reverse proxy.
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.config.MaxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	allowed := routerService.config.AllowedOrigins
	if len(allowed) == 0 {
		routerService.logger.Warn("No CORS origins configured; cross-origin requests get no CORS headers")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !originAllowed(allowed, origin) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Correlation-ID")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		h.Set("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(apperrors.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.config.RequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// gin.Context is not safe for concurrent use; never call Next in a goroutine.
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			routerService.logger.WithCorrelationID(c.Request.Context()).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				apperrors.StatusRequestTimeout,
				"Request timeout",
				nil,
			).ToJSON())
		}
	}
}

// limiterFor resolves handler overrides first, then controller overrides,
// then the global limiter.
func (routerService *RouterService) limiterFor(handlerKey string, controller *RESTController) ratelimit.RateLimiter {
	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter
	}
	if limiter, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
		return limiter
	}
	return routerService.rateLimiter
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)

		controller, found := routerService.handlerToControllerMap[handlerKey]
		if !found || controller == nil {
			// Unmatched routes are answered by NoRoute/NoMethod.
			c.Next()
			return
		}

		limiter := routerService.limiterFor(handlerKey, controller)
		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited(c.Request.Context(), clientIP)
		if err != nil {
			// Fail open on limiter backend errors.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "route", c.FullPath())
			routerService.metrics.observeRateLimited(c)
			retryAfterSeconds := int(math.Ceil(window.Seconds()))
			if retryAfterSeconds < 1 {
				retryAfterSeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:             limit,
				Window:            window.String(),
				RetryAfterSeconds: retryAfterSeconds,
			}).ToJSON())
			return
		}

		c.Next()
	}
}
