package scene

// recomputeLayoutLocked assigns every visible structure its spatial offset.
// Overlay mode puts all visible structures at the origin. Side-by-side mode
// walks the visible structures in scene order along the X axis, placing each
// bounding-box center at a running cursor that advances by half the current
// box width, the gap, and half the next box width, so boxes never overlap.
// Hidden structures keep whatever offset they had; they rejoin the layout when
// toggled back on. Representation and color changes never reach this code.
func (s *Store) recomputeLayoutLocked() {
	switch s.layoutMode {
	case LayoutOverlay:
		for _, id := range s.order {
			st := s.structures[id]
			if st.Visible {
				st.Offset = Vec3{}
			}
		}

	case LayoutSideBySide:
		type placed struct {
			st  *Structure
			box BoundingBox
		}
		visible := make([]placed, 0, len(s.order))
		for _, id := range s.order {
			st := s.structures[id]
			if !st.Visible {
				continue
			}
			box, ok := st.Molecule.BoundingBox()
			if !ok {
				continue
			}
			visible = append(visible, placed{st: st, box: box})
		}

		cursor := 0.0
		for i, p := range visible {
			if i > 0 {
				cursor += p.box.Size().X / 2
			}
			center := p.box.Center()
			p.st.Offset = Vec3{X: cursor - center.X, Y: -center.Y, Z: -center.Z}
			cursor += p.box.Size().X/2 + s.policy.LayoutGap
		}
	}
}
