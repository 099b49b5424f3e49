package ui

// surfaceGeom is the scroller's view of the host surface: scroll offset
// and viewport extent in rows. It is heap-shared between the scroller and
// the (value-copied) bubbletea model, which syncs it from the viewport
// before every window recompute.
type surfaceGeom struct {
	offset int
	extent int
}

func (s *surfaceGeom) ScrollOffset() int {
	return s.offset
}

func (s *surfaceGeom) ViewportExtent() int {
	if s.extent <= 0 {
		return 1
	}
	return s.extent
}
