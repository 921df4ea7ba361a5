package scene

import "testing"

func TestRenderDataReferenceStability(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	b, _ := s.LoadStructure(methaneMolecule(), LoadAdd)

	first := s.RenderData()
	second := s.RenderData()
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Expected 2 render entries, got %d and %d", len(first), len(second))
	}
	if &first[0] != &second[0] {
		t.Error("Expected identical slice across unchanged reads")
	}

	// A representation change on one structure rebuilds only that entry.
	s.SetStructureRepresentation(b, RepSpacefill)
	third := s.RenderData()
	if &first[0] == &third[0] {
		t.Error("Expected a fresh slice after a settings change")
	}
	for _, rd := range third {
		switch rd.ID {
		case a:
			if rd != first[0] {
				t.Error("Expected untouched structure's payload reused by pointer")
			}
		case b:
			if rd == first[1] {
				t.Error("Expected changed structure's payload rebuilt")
			}
			if rd.Representation != RepSpacefill {
				t.Errorf("Expected spacefill in payload, got %s", rd.Representation)
			}
		}
	}
}

func TestRenderDataExcludesHidden(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	b, _ := s.LoadStructure(methaneMolecule(), LoadAdd)

	s.SetStructureVisibility(a, false)

	rds := s.RenderData()
	if len(rds) != 1 || rds[0].ID != b {
		t.Errorf("Expected only the visible structure, got %d entries", len(rds))
	}
}

func TestVisibleStructureIDs(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	b, _ := s.LoadStructure(methaneMolecule(), LoadAdd)

	first := s.VisibleStructureIDs()
	second := s.VisibleStructureIDs()
	if len(first) != 2 {
		t.Fatalf("Expected 2 visible ids, got %v", first)
	}
	if &first[0] != &second[0] {
		t.Error("Expected cached slice across unchanged reads")
	}

	s.SetStructureVisibility(b, false)
	ids := s.VisibleStructureIDs()
	if len(ids) != 1 || ids[0] != a {
		t.Errorf("Expected only %s visible, got %v", a, ids)
	}
}

func TestVisibleAtomCount(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)    // 3 atoms
	s.LoadStructure(methaneMolecule(), LoadAdd)          // 5 atoms

	if got := s.VisibleAtomCount(); got != 8 {
		t.Errorf("Expected 8 visible atoms, got %d", got)
	}
	s.SetStructureVisibility(a, false)
	if got := s.VisibleAtomCount(); got != 5 {
		t.Errorf("Expected 5 visible atoms, got %d", got)
	}
}

func TestVisibleBoundingBoxEmptyScene(t *testing.T) {
	s := NewStore(DefaultPolicy())
	if _, ok := s.VisibleBoundingBox(); ok {
		t.Error("Expected no bounding box for an empty scene")
	}

	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	s.SetStructureVisibility(id, false)
	if _, ok := s.VisibleBoundingBox(); ok {
		t.Error("Expected no bounding box when everything is hidden")
	}
}

func TestActiveSelectedAtomIndices(t *testing.T) {
	s := NewStore(DefaultPolicy())
	a, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	b, _ := s.LoadStructure(methaneMolecule(), LoadAdd)

	// Selection spans both structures; only the active structure's indices
	// come back.
	s.SelectAtomsByFilter(b, func(i int, _ Atom) bool { return i < 2 })

	got := s.ActiveSelectedAtomIndices()
	if !intsEqual(got, []int{0, 1}) {
		t.Errorf("Expected [0 1], got %v", got)
	}
	again := s.ActiveSelectedAtomIndices()
	if &got[0] != &again[0] {
		t.Error("Expected cached slice while selection and active are unchanged")
	}

	s.SetActiveStructure(a)
	if got := s.ActiveSelectedAtomIndices(); len(got) != 0 {
		t.Errorf("Expected no indices for the other structure, got %v", got)
	}
}

func TestSelectorCachesInvalidatedByUndo(t *testing.T) {
	s := NewStore(DefaultPolicy())
	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	s.SelectAtomsByFilter(id, func(int, Atom) bool { return true })

	before := s.ActiveSelectedAtomIndices()
	if len(before) != 3 {
		t.Fatalf("Expected 3 selected, got %v", before)
	}

	s.Undo() // back to the post-load state, empty selection

	after := s.ActiveSelectedAtomIndices()
	if len(after) != 0 {
		t.Errorf("Expected empty selection after undo, got %v", after)
	}
}

func TestSelectorCachesInvalidatedByReset(t *testing.T) {
	s := NewStore(DefaultPolicy())
	s.LoadStructure(waterMolecule(), LoadAdd)

	if len(s.RenderData()) != 1 {
		t.Fatal("Expected 1 render entry before reset")
	}
	s.Reset()
	if len(s.RenderData()) != 0 {
		t.Error("Expected no render entries after reset")
	}
	if s.VisibleAtomCount() != 0 {
		t.Error("Expected zero atom count after reset")
	}
}

// Bonds arriving from the background worker must show up in the render
// payload even though no settings changed.
func TestRenderDataSeesLateBonds(t *testing.T) {
	policy := DefaultPolicy()
	policy.BondOffloadAtoms = 1
	s := NewStore(policy)

	mi := newManualInferencer()
	s.SetBondInferencer(mi)

	id, _ := s.LoadStructure(waterMolecule(), LoadAdd)
	ch := <-mi.chans

	rds := s.RenderData()
	if len(rds) != 1 || len(rds[0].Molecule.Bonds) != 0 {
		t.Fatal("Expected bond-less payload before inference lands")
	}

	ch <- BondResult{ID: 1, Bonds: InferBonds(waterMolecule())}
	close(ch)

	waitFor(t, "bonds in render payload", func() bool {
		rds := s.RenderData()
		return len(rds) == 1 && len(rds[0].Molecule.Bonds) == 2
	})
	if st, _ := s.Structure(id); len(st.Molecule.Bonds) != 2 {
		t.Error("Expected bonds on the structure record too")
	}
}
