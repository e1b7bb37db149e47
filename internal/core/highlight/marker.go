package highlight

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiters used when a group's members are flattened into marker
// attributes.
const (
	ModuleDelimiter      = ','
	ExplanationDelimiter = '|'
	escapeChar           = '\\'
)

// ErrMarkerMismatch is returned when a marker's module and explanation lists
// have different lengths.
var ErrMarkerMismatch = errors.New("marker module and explanation counts differ")

// Marker is the surface form of a highlight group: its visible text, its
// color, and its members flattened into two delimiter-joined lists.
type Marker struct {
	Text         string
	Color        string
	Modules      string
	Explanations string
}

// EncodeMarker flattens a marked segment into a marker. Delimiters and the
// escape character inside names or explanations are backslash-escaped so the
// lists always split back into the original members.
func EncodeMarker(seg Segment) Marker {
	m := Marker{Text: seg.Text}
	if seg.Group == nil {
		return m
	}

	m.Color = seg.Group.Color
	m.Modules = joinEscaped(seg.Group.Modules(), ModuleDelimiter)
	m.Explanations = joinEscaped(seg.Group.Explanations(), ExplanationDelimiter)
	return m
}

// DecodeMarker recovers the (module, explanation) pairs carried by a marker,
// paired by index in their original order.
func DecodeMarker(m Marker) ([]Member, error) {
	modules := splitEscaped(m.Modules, ModuleDelimiter)
	explanations := splitEscaped(m.Explanations, ExplanationDelimiter)

	if len(modules) != len(explanations) {
		return nil, fmt.Errorf("%w: %d modules, %d explanations", ErrMarkerMismatch, len(modules), len(explanations))
	}

	members := make([]Member, len(modules))
	for i := range modules {
		members[i] = Member{Module: modules[i], Explanation: explanations[i]}
	}
	return members, nil
}

func joinEscaped(parts []string, delim rune) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteRune(delim)
		}
		for _, r := range p {
			if r == delim || r == escapeChar {
				b.WriteRune(escapeChar)
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitEscaped splits on unescaped delimiters and removes escapes. An empty
// string holds a single empty element, matching how a one-member group with
// an empty explanation is encoded.
func splitEscaped(s string, delim rune) []string {
	var (
		parts   []string
		cur     strings.Builder
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == escapeChar:
			escaped = true
		case r == delim:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune(escapeChar)
	}

	return append(parts, cur.String())
}
