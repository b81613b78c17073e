package bindkit

import (
	"log/slog"

	"github.com/vango-dev/bindkit/pkg/binding"
	"github.com/vango-dev/bindkit/pkg/component"
	"github.com/vango-dev/bindkit/pkg/telemetry"
)

// Config configures a Runtime.
type Config struct {
	// Prefix is the binding attribute prefix.
	// Default: "bind-"
	Prefix string

	// IgnoredTags replaces the elements whose subtrees are never bound.
	// Default: script, textarea, template
	IgnoredTags []string

	// Components resolves the component binding. If nil, an empty
	// registry is created.
	Components *component.Registry

	// SkipCoreHandlers leaves the handler registry empty so every handler
	// must be registered explicitly.
	SkipCoreHandlers bool

	// Logger is the runtime logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics records binding metrics. Nil disables them.
	Metrics *telemetry.Metrics

	// Tracer wraps apply and clean in spans. Nil uses the global provider.
	Tracer *telemetry.Tracer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:      binding.DefaultPrefix,
		IgnoredTags: append([]string(nil), binding.DefaultIgnoredTags...),
	}
}
