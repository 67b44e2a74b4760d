package peer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/randalmurphal/wirebus/pkg/wirebus/observability"
)

// DefaultSyncInterval is the default period of the background sync loop.
const DefaultSyncInterval = 60 * time.Second

// errNoAnswer reports a liveness probe that got no usable answer. IsAlive
// swallows the underlying cause, so the probe log carries this instead.
var errNoAnswer = errors.New("no answer within probe timeout")

// Report summarizes one completed sync cycle. Attempted and Reachable
// count remote addresses only; this node's own address is excluded so the
// numbers describe the peers, not the node itself.
type Report struct {
	// Seed is the bootstrap address the cycle started from, if any.
	Seed string
	// Attempted is the number of remote addresses probed.
	Attempted int
	// Reachable is the number of remote addresses that answered the probe.
	Reachable int
	// Peers is the resulting peer set.
	Peers []string
	// Started is when the cycle began.
	Started time.Time
	// Duration is how long the cycle took.
	Duration time.Duration
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Bootstrap is the optional seed address used while the set is empty.
	Bootstrap string

	// Interval is the sync period. Default: DefaultSyncInterval.
	Interval time.Duration

	// ProbeTimeout bounds each liveness probe. Default: DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// Self returns this node's own address and whether it is currently
	// reachable. A reachable own address is always part of the result set.
	Self func() (string, bool)

	// Dial creates the client for one address. Default: NewClient.
	Dial func(addr string) (*Client, error)

	// OnCycle is called after every completed cycle with its report.
	OnCycle func(Report)

	// Logger receives recovered per-peer failures. Default: slog.Default().
	Logger *slog.Logger

	// Clock drives the background loop. Default: the real clock.
	Clock clock.Clock
}

// Registry owns the set of known peer addresses and keeps it synchronized.
// The set has exactly one writer (the sync cycle); readers get copies.
type Registry struct {
	cfg RegistryConfig

	mu      sync.Mutex
	current *Set
	last    *Report

	started atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRegistry creates a registry. The set starts empty; the bootstrap
// address, when configured, seeds every cycle that knows no remote peer.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSyncInterval
	}
	if cfg.Bootstrap != "" {
		if norm, err := Normalize(cfg.Bootstrap); err == nil {
			cfg.Bootstrap = norm
		}
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Dial == nil {
		cfg.Dial = func(addr string) (*Client, error) { return NewClient(addr) }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Self == nil {
		cfg.Self = func() (string, bool) { return "", false }
	}
	return &Registry{
		cfg:     cfg,
		current: NewSet(),
	}
}

// Snapshot returns a copy of the current peer addresses, sorted.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Addresses()
}

// Contains reports whether an address is in the current set.
func (r *Registry) Contains(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Has(addr)
}

// LastReport returns the report of the most recent completed cycle.
func (r *Registry) LastReport() (Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Report{}, false
	}
	report := *r.last
	report.Peers = append([]string(nil), r.last.Peers...)
	return report, true
}

// Expecting reports whether the registry has any peer to confirm: a
// configured bootstrap or a non-empty current set.
func (r *Registry) Expecting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg.Bootstrap != "" || r.current.Len() > 0
}

// Sync runs one synchronization cycle: concurrently probe every address in
// the starting set, union the peer lists reported by the reachable ones,
// include this node's own address when reachable, and atomically replace
// the set. Addresses that fail their probe are dropped from the result and
// not retried within the cycle. Sync never returns an error; per-peer
// failures are recovered and logged.
func (r *Registry) Sync(ctx context.Context) {
	begin := r.cfg.Clock.Now()

	selfAddr := ""
	if addr, ok := r.cfg.Self(); ok {
		selfAddr = addr
		if norm, err := Normalize(addr); err == nil {
			selfAddr = norm
		}
	}

	r.mu.Lock()
	starting := r.current.Addresses()
	r.mu.Unlock()

	// The bootstrap address seeds any cycle that knows no remote peer, so
	// a node that lost its whole neighborhood keeps retrying the seed.
	seed := ""
	if r.cfg.Bootstrap != "" && !hasRemote(starting, selfAddr) {
		seed = r.cfg.Bootstrap
		starting = append(starting, seed)
	}

	type probeResult struct {
		addr  string
		alive bool
		peers []string
	}

	// Fork one probe per address, join them all; each branch carries its
	// own timeout and failures stay on their branch.
	results := make(chan probeResult, len(starting))
	var wg sync.WaitGroup
	for _, addr := range starting {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			res := probeResult{addr: addr}
			defer func() { results <- res }()

			client, err := r.cfg.Dial(addr)
			if err != nil {
				observability.LogProbeFailed(r.cfg.Logger, addr, err)
				return
			}
			if !client.IsAlive(ctx, r.cfg.ProbeTimeout) {
				observability.LogProbeFailed(r.cfg.Logger, addr, errNoAnswer)
				return
			}
			snap, err := client.Status(ctx)
			if err != nil {
				// Recovered locally: the peer answered the probe but not
				// the status fetch, so it is dropped for this cycle.
				observability.LogProbeFailed(r.cfg.Logger, addr, err)
				return
			}
			res.alive = true
			res.peers = snap.Peers
		}(addr)
	}
	wg.Wait()
	close(results)

	next := NewSet()
	reachable := 0
	for res := range results {
		if !res.alive {
			continue
		}
		if res.addr != selfAddr {
			reachable++
		}
		if err := next.Add(res.addr); err != nil {
			continue
		}
		for _, p := range res.peers {
			if err := next.Add(p); err != nil {
				r.cfg.Logger.Debug("ignoring unusable reported peer",
					slog.String("peer", p), slog.String("error", err.Error()))
			}
		}
	}
	if self, ok := r.cfg.Self(); ok {
		if err := next.Add(self); err != nil {
			r.cfg.Logger.Warn("own address did not normalize",
				slog.String("address", self), slog.String("error", err.Error()))
		}
	}

	attempted := 0
	for _, addr := range starting {
		if addr != selfAddr {
			attempted++
		}
	}

	report := Report{
		Seed:      seed,
		Attempted: attempted,
		Reachable: reachable,
		Peers:     next.Addresses(),
		Started:   begin,
		Duration:  r.cfg.Clock.Now().Sub(begin),
	}

	r.mu.Lock()
	r.current = next
	r.last = &report
	r.mu.Unlock()

	if r.cfg.OnCycle != nil {
		r.cfg.OnCycle(report)
	}
}

// Start launches the background loop: one immediate cycle, then one per
// interval. Starting twice is a no-op. The loop holds no reference that
// keeps the process alive beyond Stop.
func (r *Registry) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(ctx)
}

func (r *Registry) loop(ctx context.Context) {
	defer close(r.done)

	r.Sync(ctx)

	ticker := r.cfg.Clock.Ticker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sync(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the background loop and joins it. Stopping an unstarted or
// already stopped registry is a no-op.
func (r *Registry) Stop() {
	if !r.started.Load() || r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func hasRemote(addrs []string, self string) bool {
	for _, a := range addrs {
		if a != self {
			return true
		}
	}
	return false
}
