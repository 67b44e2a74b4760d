package wirebus

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

// Shared helpers for the node, emit, status, and acceptance tests.

// quietLogger discards log output so failure-path tests stay silent.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestNode builds a node bound to a free loopback port and closes it
// with the test. The sync interval is long so cycles beyond the immediate
// first one only happen when a test drives them through a mock clock.
func newTestNode(t *testing.T, opts ...Option) *Node {
	t.Helper()
	base := []Option{
		WithHost("127.0.0.1"),
		WithLogger(quietLogger()),
		WithKeepaliveInterval(time.Hour),
	}
	node, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })
	return node
}

// startNode makes the node listen and fails the test if it cannot.
func startNode(t *testing.T, node *Node) {
	t.Helper()
	require.NoError(t, node.Listen())
}

// waitPeers blocks until the node knows exactly n peer addresses.
func waitPeers(t *testing.T, node *Node, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(node.Peers()) == n },
		5*time.Second, 10*time.Millisecond, "node should learn %d peers, has %v", n, node.Peers())
}

// fakePeer is an httptest-backed bus member with scripted responses and
// hit counters, for exercising fan-out behavior without a second node.
type fakePeer struct {
	srv *httptest.Server

	hadListeners atomic.Bool
	reported     atomic.Value // []string
	emits        atomic.Int64
	lastEmit     atomic.Value // peer.EmitRequest
}

func newFakePeer(t *testing.T) *fakePeer {
	t.Helper()
	p := &fakePeer{}
	p.reported.Store([]string{})

	mux := http.NewServeMux()
	mux.HandleFunc(peer.PathStatus, func(w http.ResponseWriter, r *http.Request) {
		snap := peer.StatusSnapshot{
			Node:    peer.NodeRunning,
			Network: peer.NetworkHealthy,
			Peers:   p.reported.Load().([]string),
		}
		json.NewEncoder(w).Encode(snap.Response())
	})
	mux.HandleFunc(peer.PathEmit, func(w http.ResponseWriter, r *http.Request) {
		var req peer.EmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			json.NewEncoder(w).Encode(peer.EmitResponse{Success: false, Reason: err.Error()})
			return
		}
		p.emits.Add(1)
		p.lastEmit.Store(req)
		json.NewEncoder(w).Encode(peer.EmitResponse{
			Success:      true,
			HadListeners: p.hadListeners.Load(),
		})
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePeer) addr() string { return p.srv.URL }

// reportPeers scripts the peer list the fake includes in status responses.
func (p *fakePeer) reportPeers(addrs ...string) {
	p.reported.Store(append([]string{}, addrs...))
}

// emitCount returns how many emit requests the fake has received.
func (p *fakePeer) emitCount() int64 { return p.emits.Load() }

// lastEmitRequest returns the most recent emit request body.
func (p *fakePeer) lastEmitRequest(t *testing.T) peer.EmitRequest {
	t.Helper()
	req, ok := p.lastEmit.Load().(peer.EmitRequest)
	require.True(t, ok, "fake peer received no emit")
	return req
}
