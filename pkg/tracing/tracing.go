// Package tracing wraps the OpenTelemetry tracer used across iris. Until Setup installs a
// provider every helper is a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan opens a child span. Callers always defer span.End().
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

func recording(ctx context.Context) (trace.Span, bool) {
	if tracer == nil {
		return nil, false
	}
	span := trace.SpanFromContext(ctx)
	return span, span.SpanContext().IsValid() && span.IsRecording()
}

func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	if span, ok := recording(ctx); ok {
		span.SetAttributes(attrs...)
	}
}

// RecordError marks the current span failed
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if span, ok := recording(ctx); ok {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// GetTraceID returns the hex trace id rendered in error bodies, or "".
func GetTraceID(ctx context.Context) string {
	if tracer == nil {
		return ""
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
