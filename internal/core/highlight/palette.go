package highlight

// Default colors used when the configuration does not override them.
const (
	DefaultColor = "#FFFF00"
	OverlapColor = "#9B59B6"
)

// Palette maps module names to highlight colors.
type Palette struct {
	Modules map[string]string
	Default string // single module without an entry
	Overlap string // two or more distinct modules
}

// DefaultPalette returns the built-in palette.
func DefaultPalette() Palette {
	return Palette{
		Modules: map[string]string{
			"isolated_pronouns": "#FF5733",
			"transition":        "#3498DB",
		},
		Default: DefaultColor,
		Overlap: OverlapColor,
	}
}

// ColorFor returns the color for a group drawn from the given modules.
// Duplicate module names count once.
func (p Palette) ColorFor(modules []string) string {
	distinct := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		distinct[m] = struct{}{}
	}

	if len(distinct) > 1 {
		return stringOr(p.Overlap, OverlapColor)
	}

	for m := range distinct {
		if c, ok := p.Modules[m]; ok && c != "" {
			return c
		}
	}
	return stringOr(p.Default, DefaultColor)
}

// Merge returns a copy of p with the non-empty values of other applied on top.
func (p Palette) Merge(other Palette) Palette {
	out := Palette{
		Modules: make(map[string]string, len(p.Modules)+len(other.Modules)),
		Default: stringOr(other.Default, p.Default),
		Overlap: stringOr(other.Overlap, p.Overlap),
	}
	for k, v := range p.Modules {
		out.Modules[k] = v
	}
	for k, v := range other.Modules {
		if v != "" {
			out.Modules[k] = v
		}
	}
	return out
}

func stringOr(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
