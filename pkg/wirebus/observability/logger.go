// Package observability provides structured logging, metrics, and
// distributed tracing for wirebus nodes.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds emit context to a logger.
// Returns a new logger with emit_id and event fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "emit-123", "user.created")
//	enriched.Info("fanning out") // includes emit_id, event
func EnrichLogger(logger *slog.Logger, emitID, event string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("emit_id", emitID),
		slog.String("event", event),
	)
}

// LogEmitStart logs the start of a global emit.
func LogEmitStart(logger *slog.Logger, emitID, event string, peers int) {
	if logger == nil {
		return
	}
	logger.Debug("emit starting",
		slog.String("emit_id", emitID),
		slog.String("event", event),
		slog.Int("peers", peers),
	)
}

// LogEmitComplete logs global emit completion with the combined outcome.
func LogEmitComplete(logger *slog.Logger, emitID string, hadListeners bool, durationMs float64, peers int) {
	if logger == nil {
		return
	}
	logger.Debug("emit completed",
		slog.String("emit_id", emitID),
		slog.Bool("had_listeners", hadListeners),
		slog.Float64("duration_ms", durationMs),
		slog.Int("peers", peers),
	)
}

// LogBranchError logs a failed remote emit branch (non-fatal, the other
// branches proceed).
func LogBranchError(logger *slog.Logger, emitID, peer string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("remote emit failed",
		slog.String("emit_id", emitID),
		slog.String("peer", peer),
		slog.String("error", err.Error()),
	)
}

// LogListenerError logs a listener failure (non-fatal, the remaining
// listeners still run).
func LogListenerError(logger *slog.Logger, event string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("listener failed",
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// LogSyncCycle logs completion of a peer discovery cycle.
func LogSyncCycle(logger *slog.Logger, attempted, reachable int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("peer sync completed",
		slog.Int("attempted", attempted),
		slog.Int("reachable", reachable),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogProbeFailed logs an unreachable peer during a sync cycle (non-fatal).
func LogProbeFailed(logger *slog.Logger, addr string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("peer probe failed",
		slog.String("peer", addr),
		slog.String("error", err.Error()),
	)
}

// LogNodeListening logs that the node's HTTP interface is up.
func LogNodeListening(logger *slog.Logger, addr string) {
	if logger == nil {
		return
	}
	logger.Info("node listening",
		slog.String("address", addr),
	)
}

// LogNodeClosed logs node shutdown.
func LogNodeClosed(logger *slog.Logger, addr string) {
	if logger == nil {
		return
	}
	logger.Info("node closed",
		slog.String("address", addr),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
