package wirebus

import (
	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

// Status assembles the introspectable snapshot served to peers: lifecycle
// state, network reachability derived from the most recent sync cycle, the
// known peer addresses, and the listened identifiers. Snapshots are built
// on demand and carry copies; they are never cached.
func (n *Node) Status() peer.StatusSnapshot {
	n.mu.Lock()
	state := n.state
	n.mu.Unlock()

	return peer.StatusSnapshot{
		Node:           state,
		Network:        n.networkState(),
		Peers:          n.registry.Snapshot(),
		ListenedEvents: n.bus.WireNames(),
	}
}

// networkState reads the most recent sync report: healthy when every
// expected peer answered or none are expected, partial when only some did,
// down when none did. Before the first cycle completes, a configured seed
// counts as expected but not yet confirmed.
func (n *Node) networkState() peer.NetworkState {
	report, ok := n.registry.LastReport()
	if !ok {
		if n.config.connectTo != "" {
			return peer.NetworkPartial
		}
		return peer.NetworkHealthy
	}

	switch {
	case report.Attempted == 0:
		return peer.NetworkHealthy
	case report.Reachable == 0:
		return peer.NetworkDown
	case report.Reachable < report.Attempted:
		return peer.NetworkPartial
	default:
		return peer.NetworkHealthy
	}
}
