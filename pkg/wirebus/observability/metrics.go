package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records wirebus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records a local dispatch with its duration and whether
	// any listener ran.
	RecordDispatch(ctx context.Context, event string, duration time.Duration, hadListeners bool)

	// RecordRemoteEmit records one remote emit branch with its duration and
	// error status.
	RecordRemoteEmit(ctx context.Context, peer string, duration time.Duration, err error)

	// RecordSyncCycle records a peer discovery cycle.
	RecordSyncCycle(ctx context.Context, attempted, reachable int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches    metric.Int64Counter
	dispatchMS    metric.Float64Histogram
	remoteEmits   metric.Int64Counter
	remoteEmitMS  metric.Float64Histogram
	remoteErrors  metric.Int64Counter
	syncCycles    metric.Int64Counter
	syncMS        metric.Float64Histogram
	syncReachable metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("wirebus")

	dispatches, err := meter.Int64Counter("wirebus.dispatch.count",
		metric.WithDescription("Number of local dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchMS, err := meter.Float64Histogram("wirebus.dispatch.latency_ms",
		metric.WithDescription("Local dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	remoteEmits, err := meter.Int64Counter("wirebus.emit.remote.count",
		metric.WithDescription("Number of remote emit branches"),
	)
	if err != nil {
		return nil, err
	}

	remoteEmitMS, err := meter.Float64Histogram("wirebus.emit.remote.latency_ms",
		metric.WithDescription("Remote emit branch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	remoteErrors, err := meter.Int64Counter("wirebus.emit.remote.errors",
		metric.WithDescription("Number of failed remote emit branches"),
	)
	if err != nil {
		return nil, err
	}

	syncCycles, err := meter.Int64Counter("wirebus.sync.cycles",
		metric.WithDescription("Number of peer discovery cycles"),
	)
	if err != nil {
		return nil, err
	}

	syncMS, err := meter.Float64Histogram("wirebus.sync.latency_ms",
		metric.WithDescription("Peer discovery cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	syncReachable, err := meter.Int64Histogram("wirebus.sync.reachable",
		metric.WithDescription("Reachable peers per discovery cycle"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:    dispatches,
		dispatchMS:    dispatchMS,
		remoteEmits:   remoteEmits,
		remoteEmitMS:  remoteEmitMS,
		remoteErrors:  remoteErrors,
		syncCycles:    syncCycles,
		syncMS:        syncMS,
		syncReachable: syncReachable,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a local dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, event string, duration time.Duration, hadListeners bool) {
	attrs := []attribute.KeyValue{
		attribute.String("event", event),
		attribute.Bool("had_listeners", hadListeners),
	}

	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchMS.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordRemoteEmit records one remote emit branch.
func (m *otelMetrics) RecordRemoteEmit(ctx context.Context, peer string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("peer", peer),
	}

	m.remoteEmits.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.remoteEmitMS.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.remoteErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordSyncCycle records a peer discovery cycle.
func (m *otelMetrics) RecordSyncCycle(ctx context.Context, attempted, reachable int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Int("attempted", attempted),
	}
	m.syncCycles.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.syncMS.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.syncReachable.Record(ctx, int64(reachable), metric.WithAttributes(attrs...))
}
