package tracing

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordedSpans(t *testing.T, fn func(cfg *Config)) []sdktrace.ReadOnlySpan {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	fn(&Config{TracerProvider: tp})
	return rec.Ended()
}

func TestStartLoad_RecordsAttributes(t *testing.T) {
	spans := recordedSpans(t, func(cfg *Config) {
		_, span := StartLoad(t.Context(), cfg, "normal", "abc123")
		RecordTier(span, "store")
		RecordResult(span, true, nil)
		span.End()
	})

	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "content.load" {
		t.Fatalf("span name = %q", s.Name())
	}
	attrs := make(map[string]string)
	hit := false
	for _, kv := range s.Attributes() {
		switch string(kv.Key) {
		case "cache.action", "cache.key", "cache.tier":
			attrs[string(kv.Key)] = kv.Value.AsString()
		case "cache.hit":
			hit = kv.Value.AsBool()
		}
	}
	if attrs["cache.action"] != "normal" || attrs["cache.key"] != "abc123" || attrs["cache.tier"] != "store" {
		t.Fatalf("attributes = %v", attrs)
	}
	if !hit {
		t.Fatal("cache.hit not recorded")
	}
	if s.Status().Code != codes.Ok {
		t.Fatalf("status = %v", s.Status().Code)
	}
}

func TestRecordResult_Error(t *testing.T) {
	boom := errors.New("boom")
	spans := recordedSpans(t, func(cfg *Config) {
		_, span := StartLoad(t.Context(), cfg, "refresh", "k")
		RecordResult(span, false, boom)
		span.End()
	})

	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Status().Code != codes.Error {
		t.Fatalf("status = %v", s.Status().Code)
	}
	if len(s.Events()) == 0 {
		t.Fatal("expected a recorded error event")
	}
}

func TestStartLoad_NilConfigIsNoop(t *testing.T) {
	ctx, span := StartLoad(t.Context(), nil, "normal", "k")
	if ctx == nil || span == nil {
		t.Fatal("nil config must still return usable context and span")
	}
	// All span operations must be safe no-ops.
	RecordTier(span, "memory")
	RecordResult(span, true, nil)
	span.End()
}
