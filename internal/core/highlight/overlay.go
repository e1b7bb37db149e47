package highlight

import (
	"slices"
	"strings"
)

// SegmentKind distinguishes plain text from highlighted text.
type SegmentKind string

const (
	SegmentPlain  SegmentKind = "plain"
	SegmentMarked SegmentKind = "marked"
)

// Segment is one contiguous run of the rendered text. Group is nil for plain
// segments.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Text  string      `json:"text"`
	Start int         `json:"start"`
	Group *Group      `json:"group,omitempty"`
}

// Marked reports whether the segment is a highlight.
func (s Segment) Marked() bool {
	return s.Kind == SegmentMarked
}

// End returns the exclusive end offset of the segment in characters.
func (s Segment) End() int {
	return s.Start + len([]rune(s.Text))
}

// SkipReason explains why a group was not rendered.
type SkipReason string

const (
	SkipOutOfBounds SkipReason = "out_of_bounds"
	SkipOverlap     SkipReason = "partial_overlap"
	SkipEmpty       SkipReason = "empty"
)

// Skipped is a group the renderer refused to wrap.
type Skipped struct {
	Group  Group      `json:"group"`
	Reason SkipReason `json:"reason"`
}

// Overlay is the rendered form of a text and its highlight groups.
type Overlay struct {
	Segments []Segment `json:"segments"`
	Skipped  []Skipped `json:"skipped,omitempty"`
}

// Render lays groups over text. Groups are processed from the highest
// position down: the text left of the cursor is never rewritten, so every
// group still to be processed reads its region at its original offsets.
//
// A group whose region runs into a region that is already marked is not
// wrapped and is reported in Overlay.Skipped instead. Zero-length groups are
// reported the same way and leave the cursor where it is.
func Render(text string, groups []Group) Overlay {
	runes := []rune(text)

	ordered := slices.Clone(groups)
	slices.SortStableFunc(ordered, func(a, b Group) int {
		if a.Position != b.Position {
			return b.Position - a.Position
		}
		return b.Length - a.Length
	})

	var (
		out    Overlay
		tail   []Segment // built right to left
		cursor = len(runes)
	)

	for i := range ordered {
		g := ordered[i]
		end := g.End()

		switch {
		case g.Position < 0 || g.Length < 0 || end > len(runes):
			out.Skipped = append(out.Skipped, Skipped{Group: g, Reason: SkipOutOfBounds})
			continue
		case g.Length == 0:
			out.Skipped = append(out.Skipped, Skipped{Group: g, Reason: SkipEmpty})
			continue
		case end > cursor:
			out.Skipped = append(out.Skipped, Skipped{Group: g, Reason: SkipOverlap})
			continue
		}

		if end < cursor {
			tail = append(tail, Segment{
				Kind:  SegmentPlain,
				Text:  string(runes[end:cursor]),
				Start: end,
			})
		}

		tail = append(tail, Segment{
			Kind:  SegmentMarked,
			Text:  string(runes[g.Position:end]),
			Start: g.Position,
			Group: &g,
		})
		cursor = g.Position
	}

	if cursor > 0 {
		tail = append(tail, Segment{
			Kind:  SegmentPlain,
			Text:  string(runes[:cursor]),
			Start: 0,
		})
	}

	slices.Reverse(tail)
	out.Segments = tail

	return out
}

// Text returns the concatenated text of all segments.
func (o Overlay) Text() string {
	var b strings.Builder
	for _, s := range o.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Groups returns the rendered groups in text order.
func (o Overlay) Groups() []Group {
	var out []Group
	for _, s := range o.Segments {
		if s.Marked() {
			out = append(out, *s.Group)
		}
	}
	return out
}

// Empty reports whether the overlay holds no highlights.
func (o Overlay) Empty() bool {
	for _, s := range o.Segments {
		if s.Marked() {
			return false
		}
	}
	return true
}
