// Package event provides the in-process event primitives for wirebus:
// identifiers, the wire codec, envelopes, and the local bus.
//
// # Overview
//
//   - Name: a tagged event identifier, either a plain string or a token
//   - Token: a process-local unique identifier with a display text
//   - TokenRegistry: the process-wide namespace that reconciles tokens
//     received from other processes
//   - Envelope: one emission (name plus arguments), validated at construction
//   - Bus: synchronous in-process listener registry and dispatch
//
// # Names and tokens
//
// A plain name is equal to any other plain name with the same text. A token
// minted with NewToken is unique by identity, even when display texts
// collide:
//
//	a := event.NewToken("job.done")
//	b := event.NewToken("job.done")
//	// event.FromToken(a) != event.FromToken(b)
//
// Tokens obtained through the shared registry are reconciled by display
// text, so every caller in the process gets the same token:
//
//	x := event.Shared("job.done")
//	y := event.Shared("job.done")
//	// x == y
//
// # Crossing the wire
//
// Encode projects a Name to (text, isSymbol); Decode reverses it. A token
// cannot travel between processes by identity, so Decode routes symbol
// names through the shared registry. Two processes that decode the same
// display text therefore end up with identifiers that are equal under the
// registry's rules, restoring the sender's equality intent at the cost of
// true process-local uniqueness for any name that crosses the wire.
//
// # Local dispatch
//
// Bus dispatch is synchronous and runs listeners in registration order. A
// failing listener never prevents the remaining listeners from running;
// the failure is wrapped in a ListenerError and reported through the bus's
// error hook. Dispatch reports listener presence, not listener success.
package event
