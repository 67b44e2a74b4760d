package wirebus

import "errors"

// Sentinel errors for the node lifecycle.
var (
	// ErrClosed indicates the node has been closed.
	ErrClosed = errors.New("node is closed")

	// ErrAlreadyListening indicates Listen was called on a node that is
	// already serving.
	ErrAlreadyListening = errors.New("node is already listening")

	// ErrNilContext indicates GlobalEmit was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")
)
