package highlight

// At returns the marked segment covering the character offset. Offsets at a
// segment's end belong to the next segment.
func (o Overlay) At(offset int) (Segment, bool) {
	for _, s := range o.Segments {
		if !s.Marked() {
			continue
		}
		if offset >= s.Start && offset < s.End() {
			return s, true
		}
	}
	return Segment{}, false
}

// Select decodes the members of the highlight under the character offset,
// going through the same marker encoding a rendered surface carries.
func (o Overlay) Select(offset int) ([]Member, bool) {
	seg, ok := o.At(offset)
	if !ok {
		return nil, false
	}

	members, err := DecodeMarker(EncodeMarker(seg))
	if err != nil {
		return nil, false
	}
	return members, true
}
