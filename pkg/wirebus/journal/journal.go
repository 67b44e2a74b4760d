// Package journal provides the diagnostics journal for wirebus nodes.
//
// Background work never surfaces its failures to the caller that started
// it: sync cycles and fire-and-forget fan-outs recover transport and
// protocol errors locally. The journal is where those outcomes become
// observable. It records outcomes only, never event payloads.
//
// Two implementations ship: Memory (bounded ring, the default) and SQLite
// (persistent, for nodes that need diagnostics to survive restarts).
package journal

import (
	"errors"
	"time"
)

// ErrClosed indicates the journal has been closed.
var ErrClosed = errors.New("journal closed")

// EmitRecord is the outcome of one emission branch: the local dispatch or
// the delivery attempt against one peer.
type EmitRecord struct {
	// ID is assigned by the journal.
	ID string
	// Event is the display text of the emitted identifier.
	Event string
	// Symbol reports whether the identifier was a token.
	Symbol bool
	// Peer is the branch's target address; empty for the local dispatch.
	Peer string
	// Background reports whether the branch ran in a fire-and-forget
	// fan-out.
	Background bool
	// HadListeners is the branch's result.
	HadListeners bool
	// Error is the recovered failure, empty on success.
	Error string
	// Duration is how long the branch took.
	Duration time.Duration
	// At is when the branch finished.
	At time.Time
}

// SyncRecord is the outcome of one peer synchronization cycle.
type SyncRecord struct {
	// ID is assigned by the journal.
	ID string
	// Seed is the bootstrap address the cycle started from, if any.
	Seed string
	// Attempted is the number of addresses probed.
	Attempted int
	// Reachable is the number of addresses that answered.
	Reachable int
	// Peers is the resulting peer set.
	Peers []string
	// Duration is how long the cycle took.
	Duration time.Duration
	// At is when the cycle finished.
	At time.Time
}

// Journal records node diagnostics. Implementations must be safe for
// concurrent use; recording must stay cheap enough for emit hot paths.
type Journal interface {
	// RecordEmit stores one emission branch outcome.
	RecordEmit(rec EmitRecord) error

	// RecordSync stores one sync cycle outcome.
	RecordSync(rec SyncRecord) error

	// Emits returns the most recent emission records, newest first,
	// capped at limit (<=0 means implementation default).
	Emits(limit int) ([]EmitRecord, error)

	// Syncs returns the most recent sync records, newest first, capped
	// at limit (<=0 means implementation default).
	Syncs(limit int) ([]SyncRecord, error)

	// Close releases any resources.
	Close() error
}
