package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logCapture collects JSON log lines for inspection.
type logCapture struct {
	buf bytes.Buffer
}

func newCaptureLogger() (*slog.Logger, *logCapture) {
	c := &logCapture{}
	h := slog.NewJSONHandler(&c.buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), c
}

func (c *logCapture) last(t *testing.T) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(c.buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds emit_id and event", func(t *testing.T) {
		logger, c := newCaptureLogger()

		enriched := EnrichLogger(logger, "emit-123", "user.created")
		enriched.Info("test message")

		record := c.last(t)
		assert.Equal(t, "emit-123", record["emit_id"])
		assert.Equal(t, "user.created", record["event"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "emit-123", "user.created"))
	})
}

func TestLogEmitStart(t *testing.T) {
	t.Run("logs at DEBUG level", func(t *testing.T) {
		logger, c := newCaptureLogger()

		LogEmitStart(logger, "emit-456", "order.shipped", 3)

		record := c.last(t)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "emit starting", record["msg"])
		assert.Equal(t, "emit-456", record["emit_id"])
		assert.Equal(t, "order.shipped", record["event"])
		assert.Equal(t, float64(3), record["peers"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogEmitStart(nil, "emit-1", "e", 0)
		})
	})
}

func TestLogEmitComplete(t *testing.T) {
	t.Run("logs combined outcome", func(t *testing.T) {
		logger, c := newCaptureLogger()

		LogEmitComplete(logger, "emit-789", true, 42.5, 2)

		record := c.last(t)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "emit completed", record["msg"])
		assert.Equal(t, "emit-789", record["emit_id"])
		assert.Equal(t, true, record["had_listeners"])
		assert.Equal(t, 42.5, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogEmitComplete(nil, "emit-1", false, 0, 0)
		})
	})
}

func TestLogBranchError(t *testing.T) {
	t.Run("logs at WARN level", func(t *testing.T) {
		logger, c := newCaptureLogger()
		testErr := errors.New("connection refused")

		LogBranchError(logger, "emit-err", "http://peer-a:4000", testErr)

		record := c.last(t)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "remote emit failed", record["msg"])
		assert.Equal(t, "http://peer-a:4000", record["peer"])
		assert.Equal(t, "connection refused", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogBranchError(nil, "emit-1", "peer", errors.New("err"))
		})
	})
}

func TestLogListenerError(t *testing.T) {
	t.Run("logs at WARN level", func(t *testing.T) {
		logger, c := newCaptureLogger()
		testErr := errors.New("handler exploded")

		LogListenerError(logger, "user.created", testErr)

		record := c.last(t)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "listener failed", record["msg"])
		assert.Equal(t, "user.created", record["event"])
		assert.Equal(t, "handler exploded", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogListenerError(nil, "e", errors.New("err"))
		})
	})
}

func TestLogSyncCycle(t *testing.T) {
	t.Run("logs cycle counts", func(t *testing.T) {
		logger, c := newCaptureLogger()

		LogSyncCycle(logger, 5, 3, 120.0)

		record := c.last(t)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "peer sync completed", record["msg"])
		assert.Equal(t, float64(5), record["attempted"])
		assert.Equal(t, float64(3), record["reachable"])
		assert.Equal(t, 120.0, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogSyncCycle(nil, 0, 0, 0)
		})
	})
}

func TestLogProbeFailed(t *testing.T) {
	t.Run("logs at DEBUG level", func(t *testing.T) {
		logger, c := newCaptureLogger()

		LogProbeFailed(logger, "http://peer-b:4000", errors.New("timeout"))

		record := c.last(t)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "peer probe failed", record["msg"])
		assert.Equal(t, "http://peer-b:4000", record["peer"])
		assert.Equal(t, "timeout", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogProbeFailed(nil, "peer", errors.New("err"))
		})
	})
}

func TestLogNodeLifecycle(t *testing.T) {
	t.Run("listening logs the address", func(t *testing.T) {
		logger, c := newCaptureLogger()

		LogNodeListening(logger, "http://10.0.0.5:4000")

		record := c.last(t)
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "node listening", record["msg"])
		assert.Equal(t, "http://10.0.0.5:4000", record["address"])
	})

	t.Run("closed logs the address", func(t *testing.T) {
		logger, c := newCaptureLogger()

		LogNodeClosed(logger, "http://10.0.0.5:4000")

		record := c.last(t)
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "node closed", record["msg"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogNodeListening(nil, "addr")
			LogNodeClosed(nil, "addr")
		})
	})
}

func TestTimedOperation(t *testing.T) {
	t.Run("measures duration", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(10 * time.Millisecond)
		duration := done()

		assert.GreaterOrEqual(t, duration, 10.0)
		assert.Less(t, duration, 100.0)
	})

	t.Run("can be called multiple times", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(5 * time.Millisecond)
		d1 := done()
		time.Sleep(5 * time.Millisecond)
		d2 := done()

		assert.Greater(t, d2, d1)
	})
}
