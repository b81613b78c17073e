package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for bindkit.
const defaultTracerName = "bindkit"

// Span names.
const (
	SpanApply = "bindkit.apply"
	SpanClean = "bindkit.clean"
)

// Tracer starts engine spans. The zero value and a nil *Tracer use the
// global OpenTelemetry tracer provider.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t. A nil t resolves the "bindkit" tracer from the global
// provider.
func NewTracer(t trace.Tracer) *Tracer {
	if t == nil {
		t = otel.Tracer(defaultTracerName)
	}
	return &Tracer{tracer: t}
}

func (t *Tracer) resolve() trace.Tracer {
	if t == nil || t.tracer == nil {
		return otel.Tracer(defaultTracerName)
	}
	return t.tracer
}

// Start starts span name with the given attributes. The returned function
// ends the span, recording err when it is non-nil.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := t.resolve().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
