package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/proofread/internal/core/highlight"
)

// Terminal renders overlays with background colors.
type Terminal struct {
	r *lipgloss.Renderer
}

// NewTerminal returns a terminal renderer. The renderer decides the color
// profile; a profile without colors yields the plain text.
func NewTerminal(r *lipgloss.Renderer) *Terminal {
	return &Terminal{r: r}
}

// Render returns the overlay text with marked segments colored. Segments are
// styled line by line so no padding or tab expansion is added to the text.
func (t *Terminal) Render(o highlight.Overlay) string {
	var b strings.Builder
	for _, seg := range o.Segments {
		if !seg.Marked() {
			b.WriteString(seg.Text)
			continue
		}

		style := t.r.NewStyle().
			Background(lipgloss.Color(seg.Group.Color)).
			Foreground(lipgloss.Color("#000000")).
			TabWidth(lipgloss.NoTabConversion)
		if seg.Group.Overlapping() {
			style = style.Bold(true)
		}

		for i, line := range strings.Split(seg.Text, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}
	return b.String()
}
