package event

import (
	"encoding/json"

	buserrors "github.com/randalmurphal/wirebus/pkg/wirebus/errors"
)

// Envelope is one emission: an identifier plus its ordered arguments.
// Envelopes are constructed fresh per emission and never persisted.
type Envelope struct {
	Name Name
	Args []any
}

// NewEnvelope builds an envelope, validating that every argument is
// representable as plain data. Validation happens here, synchronously,
// so an unserializable payload fails before any network attempt is made.
func NewEnvelope(name Name, args ...any) (Envelope, error) {
	for i, arg := range args {
		if _, err := json.Marshal(arg); err != nil {
			return Envelope{}, &buserrors.SerializationError{Index: i, Err: err}
		}
	}
	return Envelope{Name: name, Args: args}, nil
}
