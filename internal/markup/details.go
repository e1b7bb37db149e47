package markup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/colonyops/proofread/internal/core/highlight"
)

// Details lists every rendered highlight with the modules and explanations
// behind it, as markdown.
func Details(o highlight.Overlay) string {
	var b strings.Builder
	b.WriteString("## Highlights\n\n")

	count := 0
	for _, seg := range o.Segments {
		if !seg.Marked() {
			continue
		}
		count++

		members, err := highlight.DecodeMarker(highlight.EncodeMarker(seg))
		if err != nil {
			continue
		}

		fmt.Fprintf(&b, "%d. `%s` at %s\n", count, quoteCode(seg.Text), seg.Group.Key())
		for _, m := range members {
			fmt.Fprintf(&b, "   - **%s**: %s\n", m.Module, m.Explanation)
		}
	}

	if count == 0 {
		b.WriteString("_No highlights._\n")
	}

	if len(o.Skipped) > 0 {
		fmt.Fprintf(&b, "\n%d highlight(s) not shown:\n\n", len(o.Skipped))
		for _, sk := range o.Skipped {
			fmt.Fprintf(&b, "- %s (%s): %s\n", sk.Group.Key(), sk.Reason, strings.Join(sk.Group.Modules(), ", "))
		}
	}

	return b.String()
}

// RenderMarkdown renders markdown for a terminal of the given width.
func RenderMarkdown(md string, width int, color bool) (string, error) {
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func quoteCode(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "`", "'")
}
