package event

// WireName is the wire projection of a Name, as it appears in status
// responses and emit requests.
type WireName struct {
	Event  string `json:"event"`
	Symbol bool   `json:"symbol"`
}

// Encode projects a Name to its wire form: tokens travel as their display
// text with the symbol flag set, plain names pass through unchanged.
func Encode(n Name) (text string, isSymbol bool) {
	return n.text, n.tok != nil
}

// Wire returns the Name's wire projection as a WireName.
func Wire(n Name) WireName {
	text, isSymbol := Encode(n)
	return WireName{Event: text, Symbol: isSymbol}
}

// Decode reverses Encode using the process-wide shared registry: a symbol
// name resolves to the canonical token for its text (created if absent), so
// repeated decodes of the same text yield equal Names; a plain name decodes
// to itself.
func Decode(text string, isSymbol bool) Name {
	return DefaultRegistry.Decode(text, isSymbol)
}

// Decode reverses Encode against this registry. Independent registries
// model independent processes: decodes within one registry agree with each
// other, and two registries decoding the same text each hold one canonical
// token for it.
func (r *TokenRegistry) Decode(text string, isSymbol bool) Name {
	if !isSymbol {
		return Plain(text)
	}
	return FromToken(r.For(text))
}
