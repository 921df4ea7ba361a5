package scene

import "testing"

func TestSideBySideLayoutSeparatesBoxes(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(slabMolecule("wide", 4), LoadAdd)
	b, _ := s.LoadStructure(slabMolecule("narrow", 2), LoadAdd)

	stA, _ := s.Structure(a)
	stB, _ := s.Structure(b)

	// First box centered at the origin: width 4, centered at x=2, so the
	// offset is -2. The second center sits half the first width + gap + half
	// the second width further along: 2 + 5 + 1 = 8, minus its own center 1.
	if !almostEqual(stA.Offset.X, -2) || !almostEqual(stA.Offset.Y, 0) || !almostEqual(stA.Offset.Z, 0) {
		t.Errorf("Expected first offset (-2,0,0), got %v", stA.Offset)
	}
	if !almostEqual(stB.Offset.X, 7) {
		t.Errorf("Expected second offset x=7, got %v", stB.Offset)
	}

	// Translated boxes must not overlap: [-2,2] and [7,9] with a 5 gap.
	boxA, _ := stA.Molecule.BoundingBox()
	boxB, _ := stB.Molecule.BoundingBox()
	maxA := boxA.Translate(stA.Offset).Max.X
	minB := boxB.Translate(stB.Offset).Min.X
	if minB <= maxA {
		t.Errorf("Expected disjoint boxes, got maxA=%g minB=%g", maxA, minB)
	}
	if !almostEqual(minB-maxA, s.Policy().LayoutGap) {
		t.Errorf("Expected gap %g between boxes, got %g", s.Policy().LayoutGap, minB-maxA)
	}
}

func TestOverlayLayoutZeroesOffsets(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(slabMolecule("one", 4), LoadAdd)
	b, _ := s.LoadStructure(slabMolecule("two", 2), LoadAdd)

	s.SetLayoutMode(LayoutOverlay)

	for _, id := range []StructureID{a, b} {
		st, _ := s.Structure(id)
		if st.Offset != (Vec3{}) {
			t.Errorf("Expected zero offset in overlay mode, got %v", st.Offset)
		}
	}
	if s.LayoutMode() != LayoutOverlay {
		t.Errorf("Expected overlay mode, got %s", s.LayoutMode())
	}
}

func TestLayoutModeChangeIsNotHistory(t *testing.T) {
	s := NewStore(DefaultPolicy())
	s.LoadStructure(slabMolecule("one", 4), LoadAdd)
	pastBefore, _ := s.HistoryDepths()

	s.SetLayoutMode(LayoutOverlay)
	s.SetLayoutMode(LayoutSideBySide)
	s.SetLayoutMode("diagonal") // invalid, ignored

	pastAfter, _ := s.HistoryDepths()
	if pastAfter != pastBefore {
		t.Error("Expected layout changes out of history")
	}
	if s.LayoutMode() != LayoutSideBySide {
		t.Errorf("Expected side-by-side after invalid ignored, got %s", s.LayoutMode())
	}
}

func TestHiddenStructureLeavesLayout(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(slabMolecule("one", 4), LoadAdd)
	b, _ := s.LoadStructure(slabMolecule("two", 2), LoadAdd)

	s.SetStructureVisibility(a, false)

	// The remaining visible structure is re-centered at the origin; the
	// hidden one keeps its last offset.
	stB, _ := s.Structure(b)
	if !almostEqual(stB.Offset.X, -1) {
		t.Errorf("Expected lone visible structure centered (offset -1), got %v", stB.Offset)
	}
	stA, _ := s.Structure(a)
	if !almostEqual(stA.Offset.X, -2) {
		t.Errorf("Expected hidden structure to keep offset -2, got %v", stA.Offset)
	}

	// Toggling back on re-runs the walk over both structures.
	s.SetStructureVisibility(a, true)
	stA, _ = s.Structure(a)
	stB, _ = s.Structure(b)
	if !almostEqual(stA.Offset.X, -2) || !almostEqual(stB.Offset.X, 7) {
		t.Errorf("Expected offsets (-2, 7) after unhide, got %g and %g", stA.Offset.X, stB.Offset.X)
	}
}

func TestSingleStructureCenteredAtOrigin(t *testing.T) {
	mol := &Molecule{
		Name: "off-center",
		Atoms: []Atom{
			{Element: "C", Position: Vec3{10, 4, -2}},
			{Element: "C", Position: Vec3{14, 8, 2}},
		},
	}
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(mol, LoadAdd)

	st, _ := s.Structure(id)
	if !almostEqual(st.Offset.X, -12) || !almostEqual(st.Offset.Y, -6) || !almostEqual(st.Offset.Z, 0) {
		t.Errorf("Expected offset (-12,-6,0), got %v", st.Offset)
	}

	box, ok := s.VisibleBoundingBox()
	if !ok {
		t.Fatal("Expected a visible bounding box")
	}
	center := box.Center()
	if !almostEqual(center.X, 0) || !almostEqual(center.Y, 0) || !almostEqual(center.Z, 0) {
		t.Errorf("Expected box centered at origin, got %v", center)
	}
}
