package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	apperrors "github.com/akeren/waitlist-foundry/pkg/errors"
	"github.com/akeren/waitlist-foundry/pkg/factory"
	"github.com/akeren/waitlist-foundry/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func mountTestController(rs *RouterService, echoLimiter ratelimit.RateLimiter) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(ctx.ClientIP(), "ok")
		})

		rs.AddGetHandler(c, nil, "correlation", func(ctx *RequestContext) *ServiceResult {
			return OKResult(log.GetOrGenerateCorrelationID(ctx.Request.Context()), "ok")
		})

		rs.AddPostHandler(c, echoLimiter, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad", nil)
			}
			return OKResult(payload, "ok")
		})

		rs.AddGetHandler(c, nil, "upstream", func(ctx *RequestContext) *ServiceResult {
			return ResultFromError(apperrors.NewTransportError("Failed to join waitlist", errors.New("script: status 500 secret")))
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T, mutate func(*RouterConfig)) *RouterService {
	t.Helper()

	cfg := &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		MetricsEnabled:    true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	return CreateRouterService(log.NewLoggerWithJSONOutput(), factory.NewDefaultRateLimiterFactory(nil, nil), cfg)
}

func serve(rs *RouterService, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)

	var resp envelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w, resp := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `"10.0.0.2"`, string(resp.Data))
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) {
		c.TrustedProxies = ParseTrustedProxies("*")
	})
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w, resp := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `"1.1.1.1"`, string(resp.Data))
}

func TestParseTrustedProxies(t *testing.T) {
	assert.Nil(t, ParseTrustedProxies("  "))
	assert.Equal(t, []string{"0.0.0.0/0", "::/0"}, ParseTrustedProxies("*"))
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, ParseTrustedProxies(" 10.0.0.0/8, ,192.168.1.1 "))
}

func TestMaxBodySize_Returns413(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) {
		c.MaxBodyBytes = 10
	})
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(bytes.Repeat([]byte{'a'}, 50)))
	req.Header.Set("Content-Type", "application/json")

	w, _ := serve(rs, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCorrelationID_PropagatedAndEchoed(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/correlation", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")

	w, resp := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIDHeader))
	assert.JSONEq(t, `"abc-123"`, string(resp.Data))

	w, _ = serve(rs, httptest.NewRequest(http.MethodGet, "/correlation", nil))
	assert.NotEmpty(t, w.Header().Get(CorrelationIDHeader))
}

func TestHandlerRateLimiter_Returns429(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, ratelimit.NewInMemoryRateLimiter(1, time.Minute))

	first := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"a":1}`))
	first.Header.Set("Content-Type", "application/json")
	w, _ := serve(rs, first)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"a":1}`))
	second.Header.Set("Content-Type", "application/json")
	w, resp := serve(rs, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Contains(t, w.Body.String(), `"retry_after_seconds":60`)

	metricsRec := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `http_rate_limited_total{method="POST",route="/echo"} 1`)

	// The global limiter still serves other routes.
	w, _ = serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) {
		c.AllowedOrigins = ParseAllowedOrigins("https://example.com, https://other.dev")
	})
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://example.com")
	w, _ := serve(rs, req)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://evil.test")
	w, _ = serve(rs, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHSTS_OnlyOverHTTPS(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) {
		c.HSTS = HSTSConfig{Enabled: true, MaxAge: 600, IncludeSubdomains: true}
	})
	mountTestController(rs, nil)

	w, _ := serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w, _ = serve(rs, req)
	assert.Equal(t, "max-age=600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestResultFromError_HidesCause(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	w, resp := serve(rs, httptest.NewRequest(http.MethodGet, "/upstream", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to join waitlist", resp.Message)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestMetrics_RegistryExposedWhenEnabled(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)
	require.NotNil(t, rs.Registry())

	serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/ip",status="200"} 1`)

	disabled := newTestRouterService(t, func(c *RouterConfig) {
		c.MetricsEnabled = false
	})
	assert.Nil(t, disabled.Registry())
}

func TestNoRoute_Returns404Envelope(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	w, resp := serve(rs, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", resp.Message)
}
