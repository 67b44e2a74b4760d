package event

import (
	"github.com/randalmurphal/wirebus/pkg/wirebus/registry"
)

// TokenRegistry is a namespace that reconciles tokens by display text.
// Asking twice for the same text yields the same *Token, which is what
// makes identifiers decoded from the wire comparable across calls and
// across processes that share the same text.
//
// A token minted independently in two processes cannot be equal by
// construction, so the wire protocol deliberately routes symbol names
// through one shared namespace keyed by display text. The cost is that a
// name loses true process-local uniqueness once it has crossed the wire.
type TokenRegistry struct {
	tokens *registry.Registry[string, *Token]
}

// NewTokenRegistry creates an empty token namespace. Most callers want the
// process-wide DefaultRegistry instead; independent registries are useful
// in tests to model separate processes.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{tokens: registry.New[string, *Token]()}
}

// For returns the canonical token for a display text, creating it if
// absent. The create is atomic: concurrent callers receive the same token.
func (r *TokenRegistry) For(text string) *Token {
	return r.tokens.GetOrCreate(text, func() *Token {
		return NewToken(text)
	})
}

// Lookup returns the token for a display text without creating one.
func (r *TokenRegistry) Lookup(text string) (*Token, bool) {
	return r.tokens.Get(text)
}

// Len returns the number of reconciled texts.
func (r *TokenRegistry) Len() int {
	return r.tokens.Len()
}

// DefaultRegistry is the process-wide shared token namespace.
var DefaultRegistry = NewTokenRegistry()

// For returns the canonical token for a display text from the process-wide
// registry, creating it if absent.
func For(text string) *Token {
	return DefaultRegistry.For(text)
}

// Lookup returns the token for a display text from the process-wide
// registry without creating one.
func Lookup(text string) (*Token, bool) {
	return DefaultRegistry.Lookup(text)
}
