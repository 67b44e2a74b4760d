package wirebus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/wirebus/pkg/wirebus/event"
	"github.com/randalmurphal/wirebus/pkg/wirebus/journal"
	"github.com/randalmurphal/wirebus/pkg/wirebus/observability"
)

// GlobalEmit dispatches an event on the whole bus: local listeners first,
// then every known peer except this node, concurrently. The local result is
// final before the first remote call starts. Every remote branch carries
// its own bounded timeout and is independently caught; an unreachable or
// refusing peer counts false for that branch and never fails the call.
// Branch outcomes surface through the journal, logs, and metrics. The
// result reports whether any listener existed anywhere.
//
// The only errors are lifecycle misuse (ErrClosed, ErrNilContext) and an
// unserializable payload (*errors.SerializationError), raised before any
// network attempt.
func (n *Node) GlobalEmit(ctx context.Context, name event.Name, args ...any) (bool, error) {
	if ctx == nil {
		return false, ErrNilContext
	}
	if n.isClosed() {
		return false, ErrClosed
	}
	env, err := event.NewEnvelope(name, args...)
	if err != nil {
		return false, err
	}

	emitID := uuid.New().String()
	wire := event.Wire(name)
	peers := n.remotePeers()
	observability.LogEmitStart(n.logger, emitID, wire.Event, len(peers))

	emitCtx := ctx
	var span trace.Span
	if n.config.tracingEnabled {
		emitCtx, span = n.spans.StartEmitSpan(ctx, wire.Event, emitID)
	}

	stop := observability.TimedOperation()
	had := n.dispatchLocal(emitCtx, env, wire, false)
	if n.fanOut(emitCtx, emitID, env, wire, peers, false) {
		had = true
	}
	durationMs := stop()

	if n.config.tracingEnabled {
		n.spans.EndSpanWithError(span, nil)
	}
	observability.LogEmitComplete(n.logger, emitID, had, durationMs, len(peers))
	return had, nil
}

// GlobalEmitAsync is the fire-and-forget variant: it dispatches locally,
// returns the local result immediately, and continues the remote fan-out in
// the background. The remote outcome is observable only through the node's
// diagnostics, never returned to the caller. In-flight fan-outs are joined
// during Close.
func (n *Node) GlobalEmitAsync(name event.Name, args ...any) (bool, error) {
	if n.isClosed() {
		return false, ErrClosed
	}
	env, err := event.NewEnvelope(name, args...)
	if err != nil {
		return false, err
	}

	emitID := uuid.New().String()
	wire := event.Wire(name)
	had := n.dispatchLocal(n.baseCtx, env, wire, true)

	if !n.addBackground() {
		return had, nil
	}
	go func() {
		defer n.background.Done()
		peers := n.remotePeers()
		if len(peers) == 0 {
			return
		}
		observability.LogEmitStart(n.logger, emitID, wire.Event, len(peers))
		stop := observability.TimedOperation()
		remote := n.fanOut(n.baseCtx, emitID, env, wire, peers, true)
		observability.LogEmitComplete(n.logger, emitID, had || remote, stop(), len(peers))
	}()
	return had, nil
}

// dispatchLocal runs the local phase of one emission and records its
// outcome. It never suspends.
func (n *Node) dispatchLocal(ctx context.Context, env event.Envelope, wire event.WireName, background bool) bool {
	start := time.Now()
	had := n.bus.Dispatch(env.Name, env.Args...)
	duration := time.Since(start)

	n.metrics.RecordDispatch(ctx, wire.Event, duration, had)
	n.recordEmit(journal.EmitRecord{
		Event:        wire.Event,
		Symbol:       wire.Symbol,
		Background:   background,
		HadListeners: had,
		Duration:     duration,
	})
	return had
}

// fanOut delivers one envelope to every address concurrently and reports
// whether any peer had listeners. One goroutine per peer, joined through a
// buffered result channel; there is no shared cancellation across branches,
// so a slow peer delays only its own branch.
func (n *Node) fanOut(ctx context.Context, emitID string, env event.Envelope, wire event.WireName, peers []string, background bool) bool {
	if len(peers) == 0 {
		return false
	}

	results := make(chan bool, len(peers))
	var wg sync.WaitGroup
	for _, addr := range peers {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			results <- n.emitBranch(ctx, emitID, env, wire, addr, background)
		}(addr)
	}
	wg.Wait()
	close(results)

	any := false
	for had := range results {
		if had {
			any = true
		}
	}
	return any
}

// emitBranch delivers one envelope to one peer. Failures are recovered
// here: they mark the branch false and feed the diagnostics.
func (n *Node) emitBranch(ctx context.Context, emitID string, env event.Envelope, wire event.WireName, addr string, background bool) bool {
	branchCtx := ctx
	var span trace.Span
	if n.config.tracingEnabled {
		branchCtx, span = n.spans.StartBranchSpan(ctx, addr)
	}

	start := time.Now()
	var had bool
	client, err := n.dial(addr)
	if err == nil {
		had, err = client.RemoteEmit(branchCtx, env)
	}
	duration := time.Since(start)

	n.metrics.RecordRemoteEmit(branchCtx, addr, duration, err)
	if n.config.tracingEnabled {
		n.spans.EndSpanWithError(span, err)
	}

	rec := journal.EmitRecord{
		Event:        wire.Event,
		Symbol:       wire.Symbol,
		Peer:         addr,
		Background:   background,
		HadListeners: had,
		Duration:     duration,
	}
	if err != nil {
		had = false
		rec.HadListeners = false
		rec.Error = err.Error()
		observability.LogBranchError(n.logger, emitID, addr, err)
	}
	n.recordEmit(rec)
	return had
}

// remotePeers is the registry snapshot minus this node's own address.
func (n *Node) remotePeers() []string {
	self := n.Address()
	var out []string
	for _, addr := range n.registry.Snapshot() {
		if addr != self {
			out = append(out, addr)
		}
	}
	return out
}
