package client

import "github.com/molscene/molscene/internal/scene"

// MoleculeBuilder provides a fluent API for assembling molecules, mainly for
// tests and scripted sessions where no file parser is involved.
type MoleculeBuilder struct {
	mol scene.Molecule
}

// NewMolecule creates a new molecule builder with the given name.
func NewMolecule(name string) *MoleculeBuilder {
	return &MoleculeBuilder{mol: scene.Molecule{Name: name}}
}

// Atom adds an atom with just an element and position.
func (mb *MoleculeBuilder) Atom(element string, x, y, z float64) *MoleculeBuilder {
	mb.mol.Atoms = append(mb.mol.Atoms, scene.Atom{
		Element:  element,
		Position: scene.Vec3{X: x, Y: y, Z: z},
	})
	return mb
}

// NamedAtom adds an atom carrying residue/chain metadata, the way PDB-derived
// molecules do.
func (mb *MoleculeBuilder) NamedAtom(element, name, residue, chain string, residueSeq int, x, y, z float64) *MoleculeBuilder {
	mb.mol.Atoms = append(mb.mol.Atoms, scene.Atom{
		Element:    element,
		Name:       name,
		Residue:    residue,
		Chain:      chain,
		ResidueSeq: residueSeq,
		Position:   scene.Vec3{X: x, Y: y, Z: z},
	})
	return mb
}

// Bond adds a bond between two atom indices.
func (mb *MoleculeBuilder) Bond(a, b, order int) *MoleculeBuilder {
	mb.mol.Bonds = append(mb.mol.Bonds, scene.Bond{A: a, B: b, Order: order})
	return mb
}

// Build returns the assembled molecule.
func (mb *MoleculeBuilder) Build() *scene.Molecule {
	cp := mb.mol
	cp.Atoms = append([]scene.Atom(nil), mb.mol.Atoms...)
	cp.Bonds = append([]scene.Bond(nil), mb.mol.Bonds...)
	return &cp
}
