package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is nil when METRICS_ENABLED=false; its methods tolerate that.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected with 429 by route.",
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.rateLimited)
	return m
}

func (m *metrics) observeRequest(c *gin.Context, start time.Time) {
	if m == nil {
		return
	}

	status := strconv.Itoa(c.Writer.Status())
	route := routeLabel(c)

	m.requestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	m.requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
}

func (m *metrics) observeRateLimited(c *gin.Context) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(c.Request.Method, routeLabel(c)).Inc()
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func (routerService *RouterService) mountMetrics() {
	if !routerService.config.MetricsEnabled {
		routerService.logger.Info("Metrics disabled")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	routerService.registry = reg

	routerService.metrics = newMetrics(reg)

	routerService.engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		routerService.metrics.observeRequest(c, start)
	})

	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	routerService.engine.GET("/metrics", gin.WrapH(h))

	// No CORS headers for /metrics.
	routerService.engine.OPTIONS("/metrics", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNoContent)
	})

	routerService.logger.Info("Metrics endpoint mounted", "path", "/metrics")
}
