package peer_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePeer is an httptest-backed node answering the status operation with
// a fixed peer list.
type fakePeer struct {
	srv   *httptest.Server
	peers atomic.Value // []string
}

func newFakePeer(t *testing.T, reported []string) *fakePeer {
	t.Helper()
	p := &fakePeer{}
	p.peers.Store(append([]string(nil), reported...))
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := peer.StatusSnapshot{
			Node:    peer.NodeRunning,
			Network: peer.NetworkHealthy,
			Peers:   p.peers.Load().([]string),
		}
		json.NewEncoder(w).Encode(snap.Response())
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePeer) addr() string { return p.srv.URL }

func TestSyncSeedsFromBootstrap(t *testing.T) {
	remote := newFakePeer(t, nil)

	self := "http://127.0.0.1:9999"
	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap: remote.addr(),
		Self:      func() (string, bool) { return self, true },
		Logger:    quietLogger(),
	})

	reg.Sync(context.Background())

	snap := reg.Snapshot()
	assert.Contains(t, snap, remote.addr())
	assert.Contains(t, snap, self)
	assert.Len(t, snap, 2)

	report, ok := reg.LastReport()
	require.True(t, ok)
	assert.Equal(t, remote.addr(), report.Seed)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Reachable)
}

func TestSyncUnionsReportedPeers(t *testing.T) {
	// third is known only to remote; the cycle must learn it transitively
	// from remote's report (single-hop union).
	third := newFakePeer(t, nil)
	remote := newFakePeer(t, []string{third.addr()})

	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap: remote.addr(),
		Logger:    quietLogger(),
	})

	reg.Sync(context.Background())

	snap := reg.Snapshot()
	assert.Contains(t, snap, remote.addr())
	assert.Contains(t, snap, third.addr())
}

func TestSyncDropsUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadAddr := dead.URL
	dead.Close()

	// First cycle learns both addresses: the live peer reports the dead one.
	alive := newFakePeer(t, []string{deadAddr})
	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap:    alive.addr(),
		ProbeTimeout: 500 * time.Millisecond,
		Logger:       quietLogger(),
	})
	reg.Sync(context.Background())
	require.Contains(t, reg.Snapshot(), deadAddr)

	// Next cycle probes both; the dead one fails its probe and drops out.
	reg.Sync(context.Background())
	assert.NotContains(t, reg.Snapshot(), deadAddr)
	assert.Contains(t, reg.Snapshot(), alive.addr())

	report, ok := reg.LastReport()
	require.True(t, ok)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Reachable)
}

func TestSyncWithNothingConfigured(t *testing.T) {
	reg := peer.NewRegistry(peer.RegistryConfig{Logger: quietLogger()})

	reg.Sync(context.Background())

	assert.Empty(t, reg.Snapshot())
	report, ok := reg.LastReport()
	require.True(t, ok)
	assert.Zero(t, report.Attempted)
	assert.Zero(t, report.Reachable)
	assert.False(t, reg.Expecting())
}

func TestSyncKeepsSelfWhenPeersVanish(t *testing.T) {
	remote := newFakePeer(t, nil)
	self := "http://127.0.0.1:9999"

	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap:    remote.addr(),
		ProbeTimeout: 500 * time.Millisecond,
		Self:         func() (string, bool) { return self, true },
		Logger:       quietLogger(),
	})

	reg.Sync(context.Background())
	require.Len(t, reg.Snapshot(), 2)

	remote.srv.Close()
	reg.Sync(context.Background())

	// Own address survives; the unreachable peer is gone.
	assert.Equal(t, []string{self}, reg.Snapshot())

	report, _ := reg.LastReport()
	assert.Equal(t, 0, report.Reachable)
}

func TestSyncReseedsWhenIsolated(t *testing.T) {
	var down atomic.Bool
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		snap := peer.StatusSnapshot{Node: peer.NodeRunning, Network: peer.NetworkHealthy}
		json.NewEncoder(w).Encode(snap.Response())
	}))
	defer remote.Close()

	self := "http://127.0.0.1:9999"
	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap:    remote.URL,
		ProbeTimeout: 500 * time.Millisecond,
		Self:         func() (string, bool) { return self, true },
		Logger:       quietLogger(),
	})

	reg.Sync(context.Background())
	require.Len(t, reg.Snapshot(), 2)

	// Losing the only remote peer collapses the set to the own address.
	down.Store(true)
	reg.Sync(context.Background())
	require.Equal(t, []string{self}, reg.Snapshot())

	// The next cycle knows no remote peer, so the bootstrap address is
	// retried even though the set is not empty.
	reg.Sync(context.Background())
	report, ok := reg.LastReport()
	require.True(t, ok)
	assert.Equal(t, remote.URL, report.Seed)
	assert.Equal(t, 1, report.Attempted)
	assert.Zero(t, report.Reachable)

	// Once the seed answers again the neighborhood is rebuilt.
	down.Store(false)
	reg.Sync(context.Background())
	assert.ElementsMatch(t, []string{self, remote.URL}, reg.Snapshot())
}

func TestStartRunsImmediateCycleAndTicks(t *testing.T) {
	remote := newFakePeer(t, nil)
	mock := clock.NewMock()

	var cycles atomic.Int32
	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap: remote.addr(),
		Interval:  time.Minute,
		Clock:     mock,
		OnCycle:   func(peer.Report) { cycles.Add(1) },
		Logger:    quietLogger(),
	})

	reg.Start()
	defer reg.Stop()

	require.Eventually(t, func() bool { return cycles.Load() == 1 },
		2*time.Second, 10*time.Millisecond, "first cycle should run without waiting for the ticker")

	mock.Add(time.Minute)
	require.Eventually(t, func() bool { return cycles.Load() == 2 },
		2*time.Second, 10*time.Millisecond, "advancing the clock by one interval should trigger one cycle")

	mock.Add(2 * time.Minute)
	require.Eventually(t, func() bool { return cycles.Load() >= 3 },
		2*time.Second, 10*time.Millisecond)
}

func TestStopJoinsAndIsIdempotent(t *testing.T) {
	remote := newFakePeer(t, nil)
	mock := clock.NewMock()

	var cycles atomic.Int32
	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap: remote.addr(),
		Interval:  time.Minute,
		Clock:     mock,
		OnCycle:   func(peer.Report) { cycles.Add(1) },
		Logger:    quietLogger(),
	})

	reg.Start()
	reg.Start() // second Start is a no-op

	require.Eventually(t, func() bool { return cycles.Load() == 1 },
		2*time.Second, 10*time.Millisecond)

	reg.Stop()
	reg.Stop() // idempotent

	after := cycles.Load()
	mock.Add(10 * time.Minute)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, cycles.Load(), "no cycles may run after Stop")
}

func TestStopWithoutStart(t *testing.T) {
	reg := peer.NewRegistry(peer.RegistryConfig{Logger: quietLogger()})
	reg.Stop() // must not panic or block
}

func TestSnapshotIsACopy(t *testing.T) {
	remote := newFakePeer(t, nil)
	reg := peer.NewRegistry(peer.RegistryConfig{
		Bootstrap: remote.addr(),
		Logger:    quietLogger(),
	})
	reg.Sync(context.Background())

	snap := reg.Snapshot()
	require.NotEmpty(t, snap)
	snap[0] = "http://intruder:1"

	assert.NotContains(t, reg.Snapshot(), "http://intruder:1")
}
