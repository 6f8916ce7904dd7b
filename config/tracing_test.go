package config

import (
	"testing"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	cases := []struct {
		raw      string
		hostport string
		path     string
		insecure bool
	}{
		{"http://collector:4318", "collector:4318", "/v1/traces", true},
		{"https://otel.example.com/custom/traces", "otel.example.com", "/custom/traces", false},
		{"collector:4318", "collector:4318", "/v1/traces", true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			hostport, path, insecure, err := parseOTLPEndpoint(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.hostport, hostport)
			assert.Equal(t, tc.path, path)
			assert.Equal(t, tc.insecure, insecure)
		})
	}
}

func TestParseOTLPEndpoint_Rejects(t *testing.T) {
	for _, raw := range []string{"", "grpc://collector:4317", "collector:4318/v1/traces", "http:///nohost"} {
		_, _, _, err := parseOTLPEndpoint(raw)
		assert.Error(t, err, raw)
	}
}

func TestLoadTracingConfig_Defaults(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")
	t.Setenv("OTEL_SERVICE_NAME", " ")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg, err := LoadTracingConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.Endpoint)

	shutdown, err := SetupTracing(log.NewLoggerWithJSONOutput(), cfg)
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestNewRouterConfig_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HSTS_ENABLED", "")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://example.com")
	t.Setenv("MAX_REQUEST_BODY_BYTES", "2048")

	cfg := NewRouterConfig(NewAppConfig(), &TracingConfig{Enabled: true, ServiceName: "svc"})

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.HSTS.Enabled)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.MaxBodyBytes)
	assert.Equal(t, "svc", cfg.TracingServiceName)
}
