// Package peer implements the peer-facing half of wirebus: canonical
// address handling, the point-to-point client for the three wire
// operations, and the registry that discovers and synchronizes the peer
// set.
//
// # Addresses
//
// Every address is normalized before it is stored or compared: scheme and
// host are lowercased, a missing scheme defaults to http, default ports
// (80/443) are stripped, and so is any trailing slash. Set upholds the
// invariant that no two entries normalize to the same address.
//
// # Client
//
// Client talks to exactly one peer. Every call carries its own bounded
// timeout. IsAlive never returns an error; the other calls return exactly
// one of a defined value or a typed error (TransportError for network
// failures, ProtocolError for malformed or refused responses).
//
// # Registry
//
// Registry owns the peer set. Sync probes the starting set concurrently,
// unions the peer lists reported by reachable peers, adds this node's own
// address when it is reachable, and atomically replaces the set. A
// background loop driven by an injectable clock repeats this on a fixed
// period; Stop cancels and joins it.
//
// Synchronization is a deliberate single-hop best-effort union, not a
// converging gossip protocol: if A discovers B only because C reported B,
// B never automatically learns of A unless B performs its own discovery
// walk. The resulting asymmetric knowledge is a documented property of the
// protocol.
package peer
