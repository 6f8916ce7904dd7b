package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/circuitbreaker"
	"github.com/akeren/waitlist-foundry/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/waitlist-foundry/internal/transport"

const (
	operationAppend = "append"
	operationRead   = "read"
)

// guardedProvider trips writes and reads independently, so a provider that
// cannot serve reads still accepts appends.
type guardedProvider struct {
	Provider
	appendBreaker circuitbreaker.CircuitBreaker
	readBreaker   circuitbreaker.CircuitBreaker
	retry         retry.RetryPolicy
}

func (p guardedProvider) breaker(operation string) circuitbreaker.CircuitBreaker {
	if operation == operationRead {
		return p.readBreaker
	}
	return p.appendBreaker
}

// Chain tries its providers in order. A provider that fails, or whose
// breaker is open, is logged and skipped in favour of the next one.
//
// Mirrors receive a copy of every append once the providers have been
// tried. They never satisfy a write or a read and do not count towards
// Configured.
type Chain struct {
	providers []guardedProvider
	mirrors   []guardedProvider
	logger    *log.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	breakerConfig *circuitbreaker.Config
	retryConfig   *retry.Config
	mirrorSources []Provider
}

type Option func(*Chain)

func WithBreakerConfig(cfg *circuitbreaker.Config) Option {
	return func(c *Chain) { c.breakerConfig = cfg }
}

func WithRetryConfig(cfg *retry.Config) Option {
	return func(c *Chain) { c.retryConfig = cfg }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Chain) { c.metrics = m }
}

// WithMirror adds a write-only copy of the row log, such as the database.
func WithMirror(p Provider) Option {
	return func(c *Chain) {
		if p != nil {
			c.mirrorSources = append(c.mirrorSources, p)
		}
	}
}

func NewChain(logger *log.Logger, providers []Provider, opts ...Option) *Chain {
	if logger == nil {
		logger = log.NewLoggerWithJSONOutput()
	}

	c := &Chain{
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, c.guard(p))
		}
	}
	for _, p := range c.mirrorSources {
		c.mirrors = append(c.mirrors, c.guard(p))
	}
	c.mirrorSources = nil

	return c
}

func (c *Chain) guard(p Provider) guardedProvider {
	// Each provider gets its own config copy; the retry policy may adjust it.
	var retryCfg *retry.Config
	if c.retryConfig != nil {
		cfg := *c.retryConfig
		retryCfg = &cfg
	}

	return guardedProvider{
		Provider:      p,
		appendBreaker: circuitbreaker.NewCircuitBreaker(c.breakerConfig),
		readBreaker:   circuitbreaker.NewCircuitBreaker(c.breakerConfig),
		retry:         retry.NewExponentialBackoff(retryCfg),
	}
}

// Configured reports whether any provider is present. Mirrors alone leave
// the chain unconfigured, which the services treat as mock mode.
func (c *Chain) Configured() bool {
	return len(c.providers) > 0
}

func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

func (c *Chain) MirrorNames() []string {
	names := make([]string, 0, len(c.mirrors))
	for _, p := range c.mirrors {
		names = append(names, p.Name())
	}
	return names
}

// States reports circuit states for providers and mirrors. The provider
// name maps to the append breaker, "<name>:read" to the read breaker.
func (c *Chain) States() map[string]string {
	states := make(map[string]string, 2*(len(c.providers)+len(c.mirrors)))
	for _, group := range [][]guardedProvider{c.providers, c.mirrors} {
		for _, p := range group {
			states[p.Name()] = p.appendBreaker.State().String()
			states[p.Name()+":read"] = p.readBreaker.State().String()
		}
	}
	return states
}

func (c *Chain) call(ctx context.Context, p guardedProvider, operation string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "transport."+operation, trace.WithAttributes(
		attribute.String("transport.provider", p.Name()),
	))
	defer span.End()

	started := time.Now()
	err := p.breaker(operation).Call(func() error {
		return p.retry.Execute(ctx, func() error { return fn(ctx) })
	})
	c.metrics.observe(p.Name(), operation, started, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

// Append writes the record through the first provider that accepts it,
// then copies it to every mirror whatever the outcome.
func (c *Chain) Append(ctx context.Context, record models.Record) (Receipt, error) {
	if !c.Configured() {
		return Receipt{}, ErrNotConfigured
	}

	receipt, err := c.appendPrimary(ctx, record)
	c.appendMirrors(ctx, record)

	return receipt, err
}

func (c *Chain) appendPrimary(ctx context.Context, record models.Record) (Receipt, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, c.logger)
	var errs []error

	for _, p := range c.providers {
		var receipt Receipt
		err := c.call(ctx, p, operationAppend, func(ctx context.Context) error {
			var err error
			receipt, err = p.Append(ctx, record)
			return err
		})
		if err == nil {
			receipt.Provider = p.Name()
			return receipt, nil
		}

		logger.Warn("Transport append failed, trying next provider",
			"provider", p.Name(),
			"kind", record.Kind(),
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return Receipt{}, &ExhaustedError{Errors: errs}
}

func (c *Chain) appendMirrors(ctx context.Context, record models.Record) {
	logger := log.GetLoggerInstanceFromContext(ctx, c.logger)

	for _, m := range c.mirrors {
		err := c.call(ctx, m, operationAppend, func(ctx context.Context) error {
			_, err := m.Append(ctx, record)
			return err
		})
		if err != nil {
			logger.Warn("Mirror append failed", "mirror", m.Name(), "kind", record.Kind(), "error", err)
		}
	}
}

// Rows returns the rows of the first provider that can be read.
func (c *Chain) Rows(ctx context.Context) ([]models.Row, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	logger := log.GetLoggerInstanceFromContext(ctx, c.logger)
	var errs []error

	for _, p := range c.providers {
		rows, err := c.read(ctx, p)
		if err == nil {
			return rows, nil
		}

		logger.Warn("Transport read failed, trying next provider", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return nil, &ExhaustedError{Errors: errs}
}

// RowsFrom reads from one named provider or mirror only.
func (c *Chain) RowsFrom(ctx context.Context, name string) ([]models.Row, error) {
	for _, group := range [][]guardedProvider{c.providers, c.mirrors} {
		for _, p := range group {
			if p.Name() == name {
				return c.read(ctx, p)
			}
		}
	}
	return nil, fmt.Errorf("transport %q is not configured", name)
}

func (c *Chain) read(ctx context.Context, p guardedProvider) ([]models.Row, error) {
	var rows []models.Row
	err := c.call(ctx, p, operationRead, func(ctx context.Context) error {
		var err error
		rows, err = p.Rows(ctx)
		return err
	})
	return rows, err
}
