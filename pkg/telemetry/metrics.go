package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/bindkit/pkg/errors"
	"github.com/vango-dev/bindkit/pkg/exception"
)

// Evaluation modes.
const (
	ModeOnce    = "once"
	ModeTracked = "tracked"
)

// MetricsConfig configures NewMetrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "bindkit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for apply duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "bindkit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	bindingsApplied *prometheus.CounterVec
	nodesCleaned    prometheus.Counter
	evaluations     *prometheus.CounterVec
	exceptions      *prometheus.CounterVec
	applyDuration   prometheus.Histogram
}

// NewMetrics registers the collectors with the configured registry. It
// panics if they are already registered there, like promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		bindingsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bindings_applied_total",
			Help:        "Total number of binding handlers applied",
			ConstLabels: config.ConstLabels,
		}, []string{"handler"}),

		nodesCleaned: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_cleaned_total",
			Help:        "Total number of nodes whose binding state was cleaned",
			ConstLabels: config.ConstLabels,
		}),

		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "expression_evaluations_total",
			Help:        "Total number of expression evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		exceptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "exceptions_total",
			Help:        "Total number of recovered errors by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		applyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "apply_duration_seconds",
			Help:        "ApplyBindings duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// RecordApplied counts one application of handler.
func (m *Metrics) RecordApplied(handler string) {
	if m == nil {
		return
	}
	m.bindingsApplied.WithLabelValues(handler).Inc()
}

// RecordCleaned counts one cleaned node.
func (m *Metrics) RecordCleaned() {
	if m == nil {
		return
	}
	m.nodesCleaned.Inc()
}

// RecordEvaluation counts one expression evaluation in the given mode.
func (m *Metrics) RecordEvaluation(mode string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(mode).Inc()
}

// RecordException counts err by its kind.
func (m *Metrics) RecordException(err error) {
	if m == nil || err == nil {
		return
	}
	m.exceptions.WithLabelValues(string(errors.KindOf(err))).Inc()
}

// ObserveApply records the duration of an apply pass that started at start.
func (m *Metrics) ObserveApply(start time.Time) {
	if m == nil {
		return
	}
	m.applyDuration.Observe(time.Since(start).Seconds())
}

// CountingHandler wraps next so every reported error is counted first.
func (m *Metrics) CountingHandler(next exception.Handler) exception.Handler {
	return exception.HandlerFunc(func(err error) {
		m.RecordException(err)
		if next != nil {
			next.HandleException(err)
		}
	})
}
