package binding

import (
	"log/slog"
	"strings"

	"github.com/vango-dev/bindkit/pkg/telemetry"
)

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the handler registry. The default is an empty
// registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithPrefix sets the attribute prefix (default "bind-").
func WithPrefix(prefix string) Option {
	return func(e *Engine) {
		if prefix != "" {
			e.prefix = prefix
		}
	}
}

// WithIgnoredTags replaces the set of element tags the walker skips
// together with their subtrees. The default is script, textarea and
// template.
func WithIgnoredTags(tags ...string) Option {
	return func(e *Engine) {
		e.ignored = make(map[string]bool, len(tags))
		for _, t := range tags {
			e.ignored[strings.ToLower(t)] = true
		}
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer used for apply and clean spans.
func WithTracer(t *telemetry.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// DefaultIgnoredTags are the element tags skipped by default.
var DefaultIgnoredTags = []string{"script", "textarea", "template"}
