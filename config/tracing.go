package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const DefaultServiceName = "waitlist-foundry"

type TracingConfig struct {
	Enabled     bool   `env:"OTEL_TRACES_ENABLED" envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func LoadTracingConfig() (*TracingConfig, error) {
	var cfg TracingConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse tracing env: %w", err)
	}

	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4318"
	}

	return &cfg, nil
}

// SetupTracing installs the global tracer provider. It returns a nil shutdown
// func when tracing is disabled; spans then go to the no-op provider.
func SetupTracing(logger *log.Logger, cfg *TracingConfig) (func(context.Context) error, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	hostport, urlPath, insecure, err := parseOTLPEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(hostport),
		otlptracehttp.WithURLPath(urlPath),
	}

	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled", "service", cfg.ServiceName, "endpoint", cfg.Endpoint)

	return tp.Shutdown, nil
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port.
func parseOTLPEndpoint(raw string) (hostport string, urlPath string, insecure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		// otlptracehttp.WithEndpoint wants host:port only.
		if strings.ContainsAny(raw, "/?#") {
			return "", "", false, fmt.Errorf("invalid OTLP endpoint %q: use http://host:port[/path] when a path is needed", raw)
		}
		return raw, "/v1/traces", true, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false, fmt.Errorf("unsupported OTLP endpoint scheme %q in %q", u.Scheme, raw)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = "/v1/traces"
	}

	return u.Host, path, scheme == "http", nil
}
