package scene

import (
	"math"
	"testing"
)

func TestSelectAtomReplacesSelection(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	b, _ := s.LoadStructure(methaneMolecule(), LoadAdd)

	s.SelectAtom(a, 0)
	s.SelectAtom(b, 2)

	sel := s.Selection()
	if len(sel) != 1 {
		t.Fatalf("Expected single-atom selection, got %v", sel)
	}
	if sel[0] != (AtomRef{StructureID: b, AtomIndex: 2}) {
		t.Errorf("Expected latest pick to replace selection, got %v", sel[0])
	}
}

func TestSelectAtomInvalidRefIgnored(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)

	s.SelectAtom("ghost", 0)
	s.SelectAtom(a, 99)
	s.SelectAtom(a, -1)

	if len(s.Selection()) != 0 {
		t.Errorf("Expected invalid picks ignored, got %v", s.Selection())
	}
}

func TestSingleSelectionStaysOutOfHistory(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	pastBefore, _ := s.HistoryDepths()

	s.SelectAtom(a, 0)
	s.SelectAtom(a, 1)

	pastAfter, _ := s.HistoryDepths()
	if pastAfter != pastBefore {
		t.Errorf("Expected single picks out of history, depth went %d -> %d", pastBefore, pastAfter)
	}
}

func TestSelectAtomsByFilter(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	pastBefore, _ := s.HistoryDepths()

	s.SelectAtomsByFilter(a, func(_ int, atom Atom) bool { return atom.Element == "H" })

	sel := s.Selection()
	if len(sel) != 2 {
		t.Fatalf("Expected 2 hydrogens selected, got %v", sel)
	}
	if sel[0].AtomIndex != 1 || sel[1].AtomIndex != 2 {
		t.Errorf("Expected atoms 1 and 2 in order, got %v", sel)
	}

	pastAfter, _ := s.HistoryDepths()
	if pastAfter != pastBefore+1 {
		t.Errorf("Expected exactly one history entry for bulk select, got %d new", pastAfter-pastBefore)
	}
}

func TestClearSelection(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	s.SelectAtomsByFilter(a, func(int, Atom) bool { return true })
	pastBefore, _ := s.HistoryDepths()

	s.ClearSelection()

	if len(s.Selection()) != 0 {
		t.Error("Expected empty selection")
	}
	pastAfter, _ := s.HistoryDepths()
	if pastAfter != pastBefore+1 {
		t.Error("Expected clear to be one history entry")
	}

	// Clearing an already-empty selection records nothing.
	s.ClearSelection()
	if again, _ := s.HistoryDepths(); again != pastAfter {
		t.Error("Expected empty clear to be a no-op")
	}
}

func TestMeasurementAccumulation(t *testing.T) {
	tests := []struct {
		name      string
		kind      MeasureKind
		mol       *Molecule
		picks     []int
		wantValue float64
	}{
		{
			name:      "distance",
			kind:      MeasureDistance,
			mol:       waterMolecule(),
			picks:     []int{0, 1},
			wantValue: 0.96,
		},
		{
			name: "right angle at vertex",
			kind: MeasureAngle,
			mol: &Molecule{
				Name: "bent",
				Atoms: []Atom{
					{Element: "C", Position: Vec3{1, 0, 0}},
					{Element: "C", Position: Vec3{0, 0, 0}},
					{Element: "C", Position: Vec3{0, 1, 0}},
				},
			},
			picks:     []int{0, 1, 2},
			wantValue: 90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(DefaultPolicy())
			id, err := s.LoadStructure(tt.mol, LoadAdd)
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}

			s.SetMeasurementMode(tt.kind)
			for _, idx := range tt.picks[:len(tt.picks)-1] {
				s.SelectAtom(id, idx)
				if len(s.Measurements()) != 0 {
					t.Fatal("Measurement committed before enough atoms accumulated")
				}
			}
			s.SelectAtom(id, tt.picks[len(tt.picks)-1])

			ms := s.Measurements()
			if len(ms) != 1 {
				t.Fatalf("Expected exactly one measurement, got %d", len(ms))
			}
			m := ms[0]
			if m.ID == "" {
				t.Error("Expected non-empty measurement id")
			}
			if m.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, m.Kind)
			}
			if len(m.AtomRefs) != tt.kind.RequiredAtoms() {
				t.Errorf("Expected %d refs, got %d", tt.kind.RequiredAtoms(), len(m.AtomRefs))
			}
			if !almostEqual(m.Value, tt.wantValue) {
				t.Errorf("Expected value %g, got %g", tt.wantValue, m.Value)
			}
			if len(s.PendingMeasurementRefs()) != 0 {
				t.Error("Expected accumulator cleared after commit")
			}
			if s.MeasurementMode() != tt.kind {
				t.Error("Expected measurement mode to persist after commit")
			}
		})
	}
}

func TestDihedralMeasurement(t *testing.T) {
	mol := &Molecule{
		Name: "twist",
		Atoms: []Atom{
			{Element: "C", Position: Vec3{0, 1, 0}},
			{Element: "C", Position: Vec3{0, 0, 0}},
			{Element: "C", Position: Vec3{1, 0, 0}},
			{Element: "C", Position: Vec3{1, 0, 1}},
		},
	}
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(mol, LoadAdd)

	s.SetMeasurementMode(MeasureDihedral)
	for i := 0; i < 4; i++ {
		s.SelectAtom(id, i)
	}

	ms := s.Measurements()
	if len(ms) != 1 {
		t.Fatalf("Expected one dihedral, got %d", len(ms))
	}
	if !almostEqual(math.Abs(ms[0].Value), 90) {
		t.Errorf("Expected |dihedral| 90, got %g", ms[0].Value)
	}
}

// Measurements across two structures use world positions, so the side-by-side
// layout offset contributes to the distance.
func TestCrossStructureMeasurementUsesWorldPositions(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(slabMolecule("left", 2), LoadAdd)
	b, _ := s.LoadStructure(slabMolecule("right", 2), LoadAdd)

	s.SetMeasurementMode(MeasureDistance)
	s.SelectAtom(a, 1) // right edge of the left slab
	s.SelectAtom(b, 0) // left edge of the right slab

	ms := s.Measurements()
	if len(ms) != 1 {
		t.Fatalf("Expected one measurement, got %d", len(ms))
	}
	if !almostEqual(ms[0].Value, s.Policy().LayoutGap) {
		t.Errorf("Expected gap distance %g, got %g", s.Policy().LayoutGap, ms[0].Value)
	}
}

func TestMeasurementIsOneHistoryEntry(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	pastBefore, _ := s.HistoryDepths()

	s.SetMeasurementMode(MeasureDistance)
	s.SelectAtom(id, 0)

	if past, _ := s.HistoryDepths(); past != pastBefore {
		t.Error("Expected in-progress accumulation out of history")
	}

	s.SelectAtom(id, 1)

	if past, _ := s.HistoryDepths(); past != pastBefore+1 {
		t.Error("Expected committed measurement to be one history entry")
	}
}

func TestUndoLastSelection(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)

	s.SetMeasurementMode(MeasureAngle)
	s.SelectAtom(id, 0)
	s.SelectAtom(id, 2) // misclick
	s.UndoLastSelection()
	s.SelectAtom(id, 1)
	s.SelectAtom(id, 2)

	ms := s.Measurements()
	if len(ms) != 1 {
		t.Fatalf("Expected one measurement, got %d", len(ms))
	}
	want := []AtomRef{
		{StructureID: id, AtomIndex: 0},
		{StructureID: id, AtomIndex: 1},
		{StructureID: id, AtomIndex: 2},
	}
	if !refsEqual(ms[0].AtomRefs, want) {
		t.Errorf("Expected refs %v, got %v", want, ms[0].AtomRefs)
	}

	// Outside a gesture it is a no-op.
	s.UndoLastSelection()
}

func TestSetMeasurementModeClearsPending(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)

	s.SetMeasurementMode(MeasureDihedral)
	s.SelectAtom(id, 0)
	s.SelectAtom(id, 1)
	s.SetMeasurementMode(MeasureDistance)

	if len(s.PendingMeasurementRefs()) != 0 {
		t.Error("Expected mode switch to discard the accumulator")
	}

	s.SetMeasurementMode("unknown-kind")
	if s.MeasurementMode() != MeasureDistance {
		t.Error("Expected invalid mode ignored")
	}

	s.SetMeasurementMode("")
	if s.MeasurementMode() != "" {
		t.Error("Expected empty kind to leave measurement mode")
	}
}

func TestRemoveAndClearMeasurements(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)

	s.SetMeasurementMode(MeasureDistance)
	s.SelectAtom(id, 0)
	s.SelectAtom(id, 1)
	s.SelectAtom(id, 0)
	s.SelectAtom(id, 2)
	s.SetMeasurementMode("")

	ms := s.Measurements()
	if len(ms) != 2 {
		t.Fatalf("Expected 2 measurements, got %d", len(ms))
	}

	s.RemoveMeasurement(ms[0].ID)
	if left := s.Measurements(); len(left) != 1 || left[0].ID != ms[1].ID {
		t.Errorf("Expected only the second measurement left, got %v", left)
	}

	s.RemoveMeasurement("no-such-id")
	if len(s.Measurements()) != 1 {
		t.Error("Expected unknown remove to be a no-op")
	}

	s.ClearMeasurements()
	if len(s.Measurements()) != 0 {
		t.Error("Expected all measurements cleared")
	}
}

func TestLabels(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)

	lid := s.AddLabel(id, 0, "oxygen")
	if lid == "" {
		t.Fatal("Expected non-empty label id")
	}
	if bad := s.AddLabel(id, 42, "nope"); bad != "" {
		t.Error("Expected invalid label ref rejected")
	}

	labels := s.Labels()
	if len(labels) != 1 || labels[0].Text != "oxygen" {
		t.Fatalf("Expected one label, got %v", labels)
	}

	s.RemoveLabel(lid)
	if len(s.Labels()) != 0 {
		t.Error("Expected label removed")
	}
	s.RemoveLabel(lid) // idempotent
}

func TestHover(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)

	s.SetHover(&AtomRef{StructureID: id, AtomIndex: 1})
	h := s.Hover()
	if h == nil || h.AtomIndex != 1 {
		t.Fatalf("Expected hover on atom 1, got %v", h)
	}

	s.SetHover(&AtomRef{StructureID: "ghost", AtomIndex: 0})
	if h := s.Hover(); h == nil || h.StructureID != id {
		t.Error("Expected invalid hover ignored")
	}

	s.SetHover(nil)
	if s.Hover() != nil {
		t.Error("Expected hover cleared")
	}
}
