// Package errors defines the error taxonomy shared by the wirebus packages.
//
// The taxonomy separates failures by where they originate and who may
// recover them:
//   - ConfigError: the node cannot resolve a usable identity or option.
//   - TransportError: a network failure or timeout against one peer.
//   - ProtocolError: a peer answered, but not in the expected shape.
//   - SerializationError: an emit payload is not representable as plain data.
//   - ListenerError: one registered listener failed during local dispatch.
//
// Transport and protocol errors raised inside background work (sync cycles,
// fire-and-forget fan-out) are recovered locally and surface only through
// diagnostics; the same errors from a directly-awaited client call surface
// to the caller.
package errors

import (
	"errors"
	"fmt"
)

// ConfigError indicates the node was constructed or started with an unusable
// configuration. It is fatal at startup/listen time.
type ConfigError struct {
	// Field is the offending option ("baseUrl", "port", ...).
	Field string
	// Reason describes what made the value unusable.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error on %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// TransportError indicates a network-level failure talking to one peer:
// connection refused, DNS failure, timeout, or a non-2xx status.
type TransportError struct {
	// Address is the peer's base address.
	Address string
	// Op is the logical operation ("status", "emit", "event-names").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s against %s: %v", e.Op, e.Address, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates a peer was reachable but its response did not
// match the wire contract: unparseable body, missing fields, or an
// acknowledgement with success=false.
type ProtocolError struct {
	// Address is the peer's base address.
	Address string
	// Op is the logical operation ("status", "emit", "event-names").
	Op string
	// Detail describes the mismatch.
	Detail string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol %s against %s: %s", e.Op, e.Address, e.Detail)
}

// SerializationError indicates an emission argument cannot be represented
// as plain data. It is always raised synchronously, before any network
// attempt.
type SerializationError struct {
	// Index is the position of the offending argument, or -1 when the
	// payload failed as a whole.
	Index int
	// Err is the underlying encoding error.
	Err error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("argument %d is not serializable: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("payload is not serializable: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SerializationError) Unwrap() error {
	return e.Err
}

// ListenerError wraps a failure from one listener during local dispatch.
// It is isolated per listener: remaining listeners still run, and the
// error never propagates out of an emit.
type ListenerError struct {
	// Event is the display text of the event being dispatched.
	Event string
	// Err is the listener's error, or the recovered panic value wrapped
	// as an error.
	Err error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener for %q failed: %v", e.Event, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// IsConfig reports whether err is or wraps a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err is or wraps a ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsSerialization reports whether err is or wraps a SerializationError.
func IsSerialization(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// IsListener reports whether err is or wraps a ListenerError.
func IsListener(err error) bool {
	var le *ListenerError
	return errors.As(err, &le)
}
