package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts provider calls. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transport_calls_total",
				Help: "Total number of row transport calls by provider, operation and outcome.",
			},
			[]string{"provider", "operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transport_call_duration_seconds",
				Help:    "Row transport call duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
	}

	reg.MustRegister(m.calls, m.duration)
	return m
}

func (m *Metrics) observe(provider, operation string, started time.Time, err error) {
	if m == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}

	m.calls.WithLabelValues(provider, operation, outcome).Inc()
	m.duration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}
