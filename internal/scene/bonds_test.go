package scene

import "testing"

func TestInferBonds(t *testing.T) {
	tests := []struct {
		name      string
		mol       *Molecule
		wantBonds []Bond
	}{
		{
			name:      "water gets two O-H bonds",
			mol:       waterMolecule(),
			wantBonds: []Bond{{A: 0, B: 1}, {A: 0, B: 2}},
		},
		{
			name: "methane gets four C-H bonds",
			mol:  methaneMolecule(),
			wantBonds: []Bond{
				{A: 0, B: 1}, {A: 0, B: 2}, {A: 0, B: 3}, {A: 0, B: 4},
			},
		},
		{
			name: "overlapping atoms are too close to bond",
			mol: &Molecule{Atoms: []Atom{
				{Element: "C", Position: Vec3{0, 0, 0}},
				{Element: "C", Position: Vec3{0.3, 0, 0}},
			}},
			wantBonds: []Bond{},
		},
		{
			name: "distant atoms do not bond",
			mol: &Molecule{Atoms: []Atom{
				{Element: "C", Position: Vec3{0, 0, 0}},
				{Element: "C", Position: Vec3{4, 0, 0}},
			}},
			wantBonds: []Bond{},
		},
		{
			name: "unknown element uses the fallback radius",
			mol: &Molecule{Atoms: []Atom{
				{Element: "Xx", Position: Vec3{0, 0, 0}},
				{Element: "Xx", Position: Vec3{1.5, 0, 0}},
			}},
			wantBonds: []Bond{{A: 0, B: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bonds := InferBonds(tt.mol)
			if len(bonds) != len(tt.wantBonds) {
				t.Fatalf("Expected %d bonds, got %d: %v", len(tt.wantBonds), len(bonds), bonds)
			}
			for i, want := range tt.wantBonds {
				if bonds[i].A != want.A || bonds[i].B != want.B {
					t.Errorf("Bond %d: expected %d-%d, got %d-%d", i, want.A, want.B, bonds[i].A, bonds[i].B)
				}
			}
		})
	}
}

func TestCovalentRadiusLookup(t *testing.T) {
	if r := covalentRadius("H"); r != 0.31 {
		t.Errorf("Expected H radius 0.31, got %g", r)
	}
	// Lookup is case-insensitive on the element symbol.
	if r := covalentRadius("cl"); r != 1.02 {
		t.Errorf("Expected Cl radius 1.02, got %g", r)
	}
	if r := covalentRadius("Unobtanium"); r != defaultCovalentRadius {
		t.Errorf("Expected fallback radius, got %g", r)
	}
}

func TestInlineInferencer(t *testing.T) {
	ii := NewInlineInferencer()
	defer ii.Close()

	ch, err := ii.Infer(BondRequest{ID: 7, Molecule: waterMolecule()})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	res := <-ch
	if res.ID != 7 {
		t.Errorf("Expected result id 7, got %d", res.ID)
	}
	if res.Err != nil {
		t.Errorf("Expected no error, got %v", res.Err)
	}
	if len(res.Bonds) != 2 {
		t.Errorf("Expected 2 bonds, got %d", len(res.Bonds))
	}
	if _, ok := <-ch; ok {
		t.Error("Expected channel closed after single result")
	}

	if _, err := ii.Infer(BondRequest{ID: 8}); err == nil {
		t.Error("Expected error for request without molecule")
	}
}
