// Package tracing provides OpenTelemetry spans around content loads. It is
// entirely optional: tracing is only active when a Config is wired into a
// loader, and a nil Config produces no-op spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the OpenTelemetry configuration used for load spans.
type Config struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider
}

// tracer returns a configured [trace.Tracer].
func (c *Config) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/burrowkit/burrow/tracing")
}

// StartLoad opens a span for a content load. If cfg is nil the original
// context and a no-op span are returned.
func StartLoad(ctx context.Context, cfg *Config, action, key string) (context.Context, trace.Span) {
	if cfg == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	ctx, span := cfg.tracer().Start(ctx, "content.load", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("cache.action", action),
		attribute.String("cache.key", key),
	)
	return ctx, span
}

// RecordTier tags the span with the tier that served the load.
func RecordTier(span trace.Span, tier string) {
	span.SetAttributes(attribute.String("cache.tier", tier))
}

// RecordResult closes the span bookkeeping: hit/miss plus error status.
func RecordResult(span trace.Span, hit bool, err error) {
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
