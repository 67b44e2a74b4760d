package peer

import (
	"github.com/randalmurphal/wirebus/pkg/wirebus/event"
)

// NodeState describes where a node is in its lifecycle.
type NodeState string

// Node lifecycle states.
const (
	NodeStarting NodeState = "starting"
	NodeRunning  NodeState = "running"
	NodeClosing  NodeState = "closing"
	NodeError    NodeState = "error"
)

// NetworkState describes the reachability of the configured peers as of
// the most recent sync cycle.
type NetworkState string

// Network reachability states.
const (
	NetworkHealthy NetworkState = "healthy"
	NetworkPartial NetworkState = "partial"
	NetworkDown    NetworkState = "down"
)

// StatusSnapshot is the introspectable view of one node: its lifecycle
// state, the reachability of its peers, the peer addresses it knows, and
// the events it listens on. Snapshots are built on demand and carry copies.
type StatusSnapshot struct {
	Node           NodeState
	Network        NetworkState
	Peers          []string
	ListenedEvents []event.WireName
}

// StatusResponse is the wire body of the status operation.
type StatusResponse struct {
	Success       bool             `json:"success"`
	NodeStatus    string           `json:"nodeStatus"`
	NetworkStatus string           `json:"networkStatus"`
	Servers       []string         `json:"servers"`
	EventNames    []event.WireName `json:"eventNames"`
}

// EmitRequest is the wire body of the emit operation.
type EmitRequest struct {
	Event  string `json:"event"`
	Symbol bool   `json:"symbol"`
	Args   []any  `json:"args"`
}

// EmitResponse is the wire acknowledgement of the emit operation.
type EmitResponse struct {
	Success      bool   `json:"success"`
	HadListeners bool   `json:"hadListeners"`
	Reason       string `json:"reason,omitempty"`
}

// EventNamesResponse is the wire body of the event-names operation.
type EventNamesResponse struct {
	Success bool     `json:"success"`
	Events  []string `json:"events"`
}

// Response renders the snapshot as its wire body. Nil slices become empty
// ones so the JSON carries arrays, not null.
func (s StatusSnapshot) Response() StatusResponse {
	servers := s.Peers
	if servers == nil {
		servers = []string{}
	}
	names := s.ListenedEvents
	if names == nil {
		names = []event.WireName{}
	}
	return StatusResponse{
		Success:       true,
		NodeStatus:    string(s.Node),
		NetworkStatus: string(s.Network),
		Servers:       servers,
		EventNames:    names,
	}
}

// Snapshot parses the wire body back into a snapshot.
func (r StatusResponse) Snapshot() StatusSnapshot {
	return StatusSnapshot{
		Node:           NodeState(r.NodeStatus),
		Network:        NetworkState(r.NetworkStatus),
		Peers:          r.Servers,
		ListenedEvents: r.EventNames,
	}
}
