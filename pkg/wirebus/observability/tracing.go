package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the wirebus tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("wirebus")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEmitSpan starts a span for an entire global emit.
	// Returns the context with span and the span itself.
	StartEmitSpan(ctx context.Context, event, emitID string) (context.Context, trace.Span)

	// StartBranchSpan starts a span for one remote emit branch.
	// The branch span should be a child of the emit span.
	StartBranchSpan(ctx context.Context, peer string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartEmitSpan starts a span for an entire global emit.
func (m *otelSpanManager) StartEmitSpan(ctx context.Context, event, emitID string) (context.Context, trace.Span) {
	return StartEmitSpan(ctx, event, emitID)
}

// StartBranchSpan starts a span for one remote emit branch.
func (m *otelSpanManager) StartBranchSpan(ctx context.Context, peer string) (context.Context, trace.Span) {
	return StartBranchSpan(ctx, peer)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartEmitSpan starts a span for an entire global emit.
// Uses the global OTel tracer.
func StartEmitSpan(ctx context.Context, event, emitID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "wirebus.emit",
		trace.WithAttributes(
			attribute.String("event.name", event),
			attribute.String("emit.id", emitID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartBranchSpan starts a span for one remote emit branch.
// Uses the global OTel tracer.
func StartBranchSpan(ctx context.Context, peer string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "wirebus.emit.remote",
		trace.WithAttributes(
			attribute.String("peer.address", peer),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
