package event

import (
	"fmt"

	"github.com/google/uuid"
)

// Token is a process-local unique event identifier. Two tokens are the same
// identifier only when they are the same instance; display texts may
// collide freely.
type Token struct {
	id   string
	text string
}

// NewToken mints a fresh token with the given display text. Every call
// returns a distinct token, including calls with the same text. Use the
// shared registry (For/Shared) instead when the token must be recoverable
// from its text.
func NewToken(text string) *Token {
	return &Token{id: uuid.NewString(), text: text}
}

// ID returns the token's unique id.
func (t *Token) ID() string { return t.id }

// Text returns the token's display text.
func (t *Token) Text() string { return t.text }

// String implements fmt.Stringer.
func (t *Token) String() string {
	return fmt.Sprintf("Token(%s#%s)", t.text, t.id[:8])
}

// Name is a tagged event identifier: either a plain string or a token.
// The variant is decided once, at construction; it is never inferred later
// by inspecting the value. Name is comparable: plain names compare by text,
// token names by token identity.
type Name struct {
	text string
	tok  *Token
}

// Plain returns a plain-string Name.
func Plain(text string) Name {
	return Name{text: text}
}

// FromToken returns a Name carrying the given token.
func FromToken(t *Token) Name {
	return Name{text: t.text, tok: t}
}

// Shared returns a Name whose token comes from the process-wide shared
// registry, creating the token if absent. Shared("x") == Shared("x") always
// holds within one process.
func Shared(text string) Name {
	return FromToken(For(text))
}

// Text returns the display text of the identifier.
func (n Name) Text() string { return n.text }

// IsToken reports whether the identifier is a token.
func (n Name) IsToken() bool { return n.tok != nil }

// Token returns the underlying token, or nil for a plain name.
func (n Name) Token() *Token { return n.tok }

// String implements fmt.Stringer.
func (n Name) String() string {
	if n.tok != nil {
		return n.tok.String()
	}
	return n.text
}
