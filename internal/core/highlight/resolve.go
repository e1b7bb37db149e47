package highlight

// Member is one (module, explanation) pair contributing to a group.
type Member struct {
	Module      string `json:"module_name"`
	Explanation string `json:"explanation"`
}

// Group is the set of spans sharing an identical region, rendered as one
// visual unit.
type Group struct {
	Position int      `json:"position"`
	Length   int      `json:"length"`
	Members  []Member `json:"members"`
	Color    string   `json:"color"`
}

// Key returns the region key of the group.
func (g Group) Key() Key {
	return Key{Position: g.Position, Length: g.Length}
}

// End returns the exclusive end offset.
func (g Group) End() int {
	return g.Position + g.Length
}

// Modules returns the module names of all members in member order.
func (g Group) Modules() []string {
	out := make([]string, len(g.Members))
	for i, m := range g.Members {
		out[i] = m.Module
	}
	return out
}

// Explanations returns the explanations of all members in member order.
func (g Group) Explanations() []string {
	out := make([]string, len(g.Members))
	for i, m := range g.Members {
		out[i] = m.Explanation
	}
	return out
}

// Overlapping reports whether more than one distinct module contributed.
func (g Group) Overlapping() bool {
	if len(g.Members) < 2 {
		return false
	}
	for _, m := range g.Members[1:] {
		if m.Module != g.Members[0].Module {
			return true
		}
	}
	return false
}

// Resolve merges spans with identical (position, length) keys into groups and
// assigns each group its color. Members keep input order and groups are
// returned in the order their key was first seen.
func Resolve(spans []Span, palette Palette) []Group {
	if len(spans) == 0 {
		return nil
	}

	index := make(map[Key]int, len(spans))
	groups := make([]Group, 0, len(spans))

	for _, s := range spans {
		member := Member{Module: s.Module, Explanation: s.Explanation}

		i, ok := index[s.Key()]
		if !ok {
			index[s.Key()] = len(groups)
			groups = append(groups, Group{
				Position: s.Position,
				Length:   s.Length,
				Members:  []Member{member},
			})
			continue
		}
		groups[i].Members = append(groups[i].Members, member)
	}

	for i := range groups {
		groups[i].Color = palette.ColorFor(groups[i].Modules())
	}

	return groups
}
