package wirebus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	buserrors "github.com/randalmurphal/wirebus/pkg/wirebus/errors"
	"github.com/randalmurphal/wirebus/pkg/wirebus/event"
	"github.com/randalmurphal/wirebus/pkg/wirebus/journal"
	"github.com/randalmurphal/wirebus/pkg/wirebus/observability"
	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
	"github.com/randalmurphal/wirebus/pkg/wirebus/transport"
)

// shutdownTimeout bounds the graceful drain of the transport during Close.
const shutdownTimeout = 5 * time.Second

// Node is one participant of the bus: an in-process event bus plus the
// network identity that lets other nodes reach it. A node works as a purely
// local bus from construction; Listen attaches it to the network.
//
// All methods are safe for concurrent use.
type Node struct {
	config nodeConfig

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	bus      *event.Bus
	registry *peer.Registry
	server   *transport.Server
	journal  journal.Journal

	// httpc is shared by every outbound peer call so fan-out branches
	// draw from one connection pool.
	httpc *http.Client

	mu         sync.Mutex
	state      peer.NodeState
	advertised string

	// baseCtx cancels background fan-outs on Close; background joins them.
	baseCtx    context.Context
	baseCancel context.CancelFunc
	background sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// New assembles a node from options. Configuration errors (an out-of-range
// port, an address that does not parse) fail here; anything that depends on
// the network is deferred to Listen.
func New(opts ...Option) (*Node, error) {
	cfg := defaultNodeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.port < 0 || cfg.port > 65535 {
		return nil, &buserrors.ConfigError{
			Field:  "port",
			Reason: fmt.Sprintf("%d is out of range", cfg.port),
		}
	}
	if cfg.baseURL != "" {
		norm, err := peer.Normalize(cfg.baseURL)
		if err != nil {
			return nil, &buserrors.ConfigError{Field: "baseUrl", Reason: err.Error()}
		}
		cfg.baseURL = norm
	}
	if cfg.connectTo != "" {
		norm, err := peer.Normalize(cfg.connectTo)
		if err != nil {
			return nil, &buserrors.ConfigError{Field: "connectTo", Reason: err.Error()}
		}
		cfg.connectTo = norm
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.name != "" {
		logger = logger.With(slog.String("node", cfg.name))
	}

	clk := cfg.clock
	if clk == nil {
		clk = clock.New()
	}
	jr := cfg.journal
	if jr == nil {
		jr = journal.NewMemory(0)
	}
	httpc := cfg.httpClient
	if httpc == nil {
		httpc = &http.Client{}
	}

	var metrics observability.MetricsRecorder = observability.NoopMetrics{}
	if cfg.metricsEnabled {
		metrics = observability.NewMetricsRecorder()
	}
	var spans observability.SpanManager = observability.NoopSpanManager{}
	if cfg.tracingEnabled {
		spans = observability.NewSpanManager()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	n := &Node{
		config:     cfg,
		logger:     logger,
		metrics:    metrics,
		spans:      spans,
		journal:    jr,
		httpc:      httpc,
		state:      peer.NodeStarting,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}

	n.bus = event.NewBus(event.BusConfig{
		Logger: logger,
		OnError: func(name event.Name, err error) {
			observability.LogListenerError(logger, name.Text(), err)
		},
	})

	n.registry = peer.NewRegistry(peer.RegistryConfig{
		Bootstrap:    cfg.connectTo,
		Interval:     cfg.keepaliveInterval,
		ProbeTimeout: cfg.probeTimeout,
		Self:         n.selfAddress,
		Dial:         n.dial,
		OnCycle:      n.onSyncCycle,
		Logger:       logger,
		Clock:        clk,
	})

	n.server = transport.NewServer(nodeBackend{n}, transport.ServerConfig{
		Host:    cfg.host,
		Port:    cfg.port,
		Secret:  cfg.secret,
		Logger:  logger,
		OnError: n.onServeError,
	})

	return n, nil
}

// Listen binds the transport, resolves the address advertised to peers, and
// starts the background sync loop; the first sync cycle runs immediately.
// A node whose Listen failed moves to the error state but keeps working as
// a purely local bus, and Listen may be retried.
func (n *Node) Listen() error {
	n.mu.Lock()
	switch n.state {
	case peer.NodeClosing:
		n.mu.Unlock()
		return ErrClosed
	case peer.NodeRunning:
		n.mu.Unlock()
		return ErrAlreadyListening
	}
	n.mu.Unlock()

	if err := n.server.Start(); err != nil {
		if errors.Is(err, transport.ErrAlreadyStarted) {
			return ErrAlreadyListening
		}
		n.fail()
		return &buserrors.ConfigError{Field: "listen", Reason: err.Error()}
	}

	advertised, err := resolveAdvertised(n.config, n.server.BoundPort())
	if err != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = n.server.Shutdown(shutCtx)
		cancel()
		n.fail()
		return err
	}

	n.mu.Lock()
	n.advertised = advertised
	n.state = peer.NodeRunning
	n.mu.Unlock()

	n.registry.Start()
	observability.LogNodeListening(n.logger, advertised)
	return nil
}

// Close shuts the node down: it stops the sync loop, drains the transport,
// joins in-flight background fan-outs, and closes the bus and the journal.
// Close is idempotent; every call returns the first result.
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.state = peer.NodeClosing
		addr := n.advertised
		n.mu.Unlock()

		n.baseCancel()
		n.registry.Stop()

		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := n.server.Shutdown(shutCtx)
		cancel()

		n.background.Wait()
		n.bus.Close()
		err = multierr.Append(err, n.journal.Close())

		observability.LogNodeClosed(n.logger, addr)
		n.closeErr = err
	})
	return n.closeErr
}

// Subscribe registers a listener for an identifier. The returned handle
// unsubscribes it.
func (n *Node) Subscribe(name event.Name, fn event.Listener) (*event.Subscription, error) {
	if n.isClosed() {
		return nil, ErrClosed
	}
	return n.bus.Subscribe(name, fn)
}

// Emit dispatches to local listeners only, synchronously and in
// registration order. It reports whether at least one listener existed,
// independent of listener failures; those are isolated and reported through
// the node's diagnostics.
func (n *Node) Emit(name event.Name, args ...any) bool {
	start := time.Now()
	had := n.bus.Dispatch(name, args...)
	n.metrics.RecordDispatch(n.baseCtx, name.Text(), time.Since(start), had)
	return had
}

// ListenedNames returns every identifier with at least one local listener.
func (n *Node) ListenedNames() []event.Name {
	return n.bus.ListenedNames()
}

// Peers returns a copy of the currently known peer addresses, sorted.
func (n *Node) Peers() []string {
	return n.registry.Snapshot()
}

// Address returns the address advertised to peers, empty before Listen
// succeeds.
func (n *Node) Address() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.advertised
}

// Name returns the node's display name.
func (n *Node) Name() string {
	return n.config.name
}

// Journal returns the node's diagnostics journal, where background sync and
// fire-and-forget outcomes are observable.
func (n *Node) Journal() journal.Journal {
	return n.journal
}

// selfAddress feeds the registry's self-inclusion rule: the advertised
// address counts as reachable while the node is serving it.
func (n *Node) selfAddress() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.advertised, n.state == peer.NodeRunning && n.advertised != ""
}

// dial builds the client for one outbound peer address.
func (n *Node) dial(addr string) (*peer.Client, error) {
	opts := []peer.ClientOption{
		peer.WithHTTPClient(n.httpc),
		peer.WithCallTimeout(n.config.callTimeout),
	}
	if n.config.secret != "" {
		opts = append(opts, peer.WithSecret(n.config.secret))
	}
	return peer.NewClient(addr, opts...)
}

func (n *Node) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state == peer.NodeClosing
}

// fail moves the node to the error state unless it is already closing.
func (n *Node) fail() {
	n.mu.Lock()
	if n.state != peer.NodeClosing {
		n.state = peer.NodeError
	}
	n.mu.Unlock()
}

// onServeError marks the node failed when the transport dies after a
// successful Listen.
func (n *Node) onServeError(error) {
	n.fail()
}

// onSyncCycle feeds each completed sync cycle into the diagnostics: log,
// metrics, and journal.
func (n *Node) onSyncCycle(report peer.Report) {
	durationMs := float64(report.Duration) / float64(time.Millisecond)
	observability.LogSyncCycle(n.logger, report.Attempted, report.Reachable, durationMs)
	n.metrics.RecordSyncCycle(n.baseCtx, report.Attempted, report.Reachable, report.Duration)
	n.recordSync(journal.SyncRecord{
		Seed:      report.Seed,
		Attempted: report.Attempted,
		Reachable: report.Reachable,
		Peers:     report.Peers,
		Duration:  report.Duration,
	})
}

// recordEmit writes one emission branch outcome, tolerating a journal that
// already closed during shutdown.
func (n *Node) recordEmit(rec journal.EmitRecord) {
	if err := n.journal.RecordEmit(rec); err != nil && !errors.Is(err, journal.ErrClosed) {
		n.logger.Debug("journal write failed", slog.String("error", err.Error()))
	}
}

// recordSync writes one sync cycle outcome, tolerating a closed journal.
func (n *Node) recordSync(rec journal.SyncRecord) {
	if err := n.journal.RecordSync(rec); err != nil && !errors.Is(err, journal.ErrClosed) {
		n.logger.Debug("journal write failed", slog.String("error", err.Error()))
	}
}

// addBackground registers one background fan-out; it fails once Close has
// begun so the close join cannot race a late start.
func (n *Node) addBackground() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == peer.NodeClosing {
		return false
	}
	n.background.Add(1)
	return true
}

// nodeBackend adapts the node to the transport's Backend interface without
// widening the node's public surface.
type nodeBackend struct {
	node *Node
}

func (b nodeBackend) Status() peer.StatusSnapshot {
	return b.node.Status()
}

func (b nodeBackend) DispatchWire(name string, symbol bool, args []any) (bool, error) {
	if b.node.isClosed() {
		return false, ErrClosed
	}
	return b.node.Emit(event.Decode(name, symbol), args...), nil
}

func (b nodeBackend) EventNames() []string {
	names := b.node.bus.ListenedNames()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name.Text()
	}
	return out
}
