/*
Package wirebus provides a brokerless event bus distributed over plain HTTP.

# Overview

wirebus lets a group of processes share one logical event bus with no
central broker. Every participant is a Node: a local publish/subscribe bus
plus an HTTP identity other nodes can reach. Nodes discover each other
through periodic status exchanges and deliver events peer to peer with
point-to-point request/response calls.

The library favors predictable, inspectable behavior:
  - Local dispatch is synchronous and completes before any remote call
  - Remote fan-out is concurrent with per-branch timeouts and isolation
  - Every node answers a status operation describing its state and peers
  - Background failures surface through a diagnostics journal, never panics

# Basic Usage

Create a node, subscribe, and emit:

	node, err := wirebus.New(wirebus.WithPort(4000))
	if err != nil {
	    log.Fatal(err)
	}
	defer node.Close()

	node.Subscribe(event.Plain("user.created"), func(args ...any) error {
	    fmt.Println("created:", args)
	    return nil
	})

	if err := node.Listen(); err != nil {
	    log.Fatal(err)
	}

	had, err := node.GlobalEmit(context.Background(), event.Plain("user.created"), "u-1")

Until Listen is called the node works as a purely local bus: Subscribe and
Emit are fully functional, GlobalEmit simply has no peers to reach.

# Joining a Bus

A node joins an existing bus by seeding its peer registry with any member's
address:

	node, err := wirebus.New(
	    wirebus.WithPort(4001),
	    wirebus.WithConnectTo("http://10.0.0.5:4000"),
	)

After Listen, a background sync loop probes known addresses, unions the
peer lists reported by reachable ones, and replaces the set atomically.
Discovery is a single-hop best-effort union, not a converging gossip
protocol: if A discovers B only because a third node reported it, B does
not automatically learn of A. This asymmetry is intentional and documented.

# Event Identifiers

Events are named by an event.Name, either a plain string or a
process-local unique token:

	orders := event.Plain("order.shipped") // equal across processes by text
	private := event.Shared("internal")    // token from the shared registry

Tokens cannot be equal across processes by construction, so a token name
that crosses the wire is resolved through a process-wide shared registry
keyed by display text. See the event package for the trade-off this makes.

# Emitting

Emit dispatches to local listeners only. GlobalEmit dispatches locally,
then fans out to every known peer except the node itself; the result
reports whether any listener existed anywhere. GlobalEmitAsync returns the
local result immediately and completes the fan-out in the background.

Failed branches never fail an emit: an unreachable peer counts false for
its branch, and the failure is recorded in the node's journal:

	node.GlobalEmitAsync(event.Plain("cache.invalidate"), key)
	...
	records, _ := node.Journal().Emits(20)

The only error GlobalEmit raises about the payload is
*errors.SerializationError, returned before any network attempt when an
argument is not representable as plain data.

# Configuration

Nodes are configured with functional options, immutable after New. A
YAML or JSON file can supply them, with ${VAR} environment expansion:

	cfg, err := config.FromFile("bus.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	jr, err := wirebus.OpenJournal(cfg)
	if err != nil {
	    log.Fatal(err)
	}
	node, err := wirebus.New(wirebus.FromConfig(cfg), wirebus.WithJournal(jr))

# Observability

Enable structured logs, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	node, err := wirebus.New(
	    wirebus.WithLogger(logger),
	    wirebus.WithMetrics(true),
	    wirebus.WithTracing(true),
	)

Logs include structured fields: emit_id, event, peer, duration_ms.
OpenTelemetry metrics: wirebus.dispatch.count, wirebus.emit.remote.count, etc.
OpenTelemetry tracing: wirebus.emit > wirebus.emit.remote spans.

# Error Handling

Errors are typed by where they originate:

	had, err := node.GlobalEmit(ctx, name, payload)
	var serr *errors.SerializationError
	if errors.As(err, &serr) {
	    log.Printf("argument %d is not plain data", serr.Index)
	}

Transport and protocol errors from background work (sync cycles,
fire-and-forget fan-outs) are recovered and observable only through the
journal, logs, and metrics. The same errors from a directly-awaited
peer.Client call are returned to the caller.

# Thread Safety

  - Node IS safe for concurrent use
  - event.Bus IS safe for concurrent use; listeners run outside its lock
  - peer.Set has one writer (the sync loop) and hands out copies
  - Journal implementations are safe for concurrent use

# Subpackages

  - event: identifiers, wire codec, envelopes, and the local bus
  - peer: address canonicalization, peer set, HTTP client, sync registry
  - transport: the gin HTTP server answering status, emit, and event-names
  - journal: diagnostics journal (memory, SQLite)
  - observability: logging, metrics, and tracing helpers
  - config, template: file configuration with environment expansion
  - errors: the shared error taxonomy
*/
package wirebus
