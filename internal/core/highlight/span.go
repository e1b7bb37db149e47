// Package highlight implements the overlay engine: it groups module findings
// by region, renders them over the source text as typed segments, and decodes
// rendered markers back into the findings that produced them.
package highlight

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for span construction.
var (
	ErrEmptyModule  = errors.New("span module name is empty")
	ErrOutOfBounds  = errors.New("span is out of bounds")
	ErrNegativeSpan = errors.New("span position or length is negative")
)

// Span is one module's finding. Position and Length count characters (runes)
// in the original, unmodified text.
type Span struct {
	Position    int
	Length      int
	Module      string
	Explanation string
}

// NewSpan validates a finding against the text it was produced for.
func NewSpan(text string, position, length int, module, explanation string) (Span, error) {
	if module == "" {
		return Span{}, ErrEmptyModule
	}
	if position < 0 || length < 0 {
		return Span{}, fmt.Errorf("%w: position=%d length=%d", ErrNegativeSpan, position, length)
	}

	n := utf8.RuneCountInString(text)
	if position+length > n {
		return Span{}, fmt.Errorf("%w: [%d,%d) exceeds text length %d", ErrOutOfBounds, position, position+length, n)
	}

	return Span{
		Position:    position,
		Length:      length,
		Module:      module,
		Explanation: explanation,
	}, nil
}

// SpanFromMatch builds a span whose length is the character count of the
// matched text, as reported by modules that return the matched substring.
func SpanFromMatch(text string, position int, matched, module, explanation string) (Span, error) {
	return NewSpan(text, position, utf8.RuneCountInString(matched), module, explanation)
}

// End returns the exclusive end offset.
func (s Span) End() int {
	return s.Position + s.Length
}

// Key returns the region key used to merge spans into groups.
func (s Span) Key() Key {
	return Key{Position: s.Position, Length: s.Length}
}

// Key identifies a region of text. Spans with equal keys are rendered as one
// group.
type Key struct {
	Position int
	Length   int
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%d", k.Position, k.Length)
}
