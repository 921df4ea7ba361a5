package scene

import "github.com/google/uuid"

// StructureID is a unique identifier for a loaded structure. IDs are assigned
// at load time and never reused within a scene.
type StructureID string

// NewStructureID returns a fresh structure identifier.
func NewStructureID() StructureID {
	return StructureID(uuid.NewString())
}

// Representation is the geometric style a structure is drawn with.
type Representation string

const (
	RepBallAndStick Representation = "ball-and-stick"
	RepStick        Representation = "stick"
	RepSpacefill    Representation = "spacefill"
	RepCartoon      Representation = "cartoon"
	RepSurfaceVDW   Representation = "surface-vdw"
	RepSurfaceSAS   Representation = "surface-sas"
)

// ValidRepresentation reports whether r is one of the known representations.
func ValidRepresentation(r Representation) bool {
	switch r {
	case RepBallAndStick, RepStick, RepSpacefill, RepCartoon, RepSurfaceVDW, RepSurfaceSAS:
		return true
	}
	return false
}

// ColorScheme is the per-atom coloring rule a structure is drawn with.
type ColorScheme string

const (
	ColorCPK                ColorScheme = "cpk"
	ColorChain              ColorScheme = "chain"
	ColorResidueType        ColorScheme = "residueType"
	ColorBFactor            ColorScheme = "bfactor"
	ColorRainbow            ColorScheme = "rainbow"
	ColorSecondaryStructure ColorScheme = "secondaryStructure"
)

// ValidColorScheme reports whether c is one of the known color schemes.
func ValidColorScheme(c ColorScheme) bool {
	switch c {
	case ColorCPK, ColorChain, ColorResidueType, ColorBFactor, ColorRainbow, ColorSecondaryStructure:
		return true
	}
	return false
}

// ComponentType classifies a group of atoms within one molecule.
type ComponentType string

const (
	ComponentProtein ComponentType = "protein"
	ComponentNucleic ComponentType = "nucleic"
	ComponentLigand  ComponentType = "ligand"
	ComponentWater   ComponentType = "water"
	ComponentIon     ComponentType = "ion"
	ComponentOther   ComponentType = "other"
)

// ComponentSettings carries the render settings for one component of a
// multi-component structure (the "smart defaults" partition).
type ComponentSettings struct {
	Type           ComponentType  `json:"type"`
	AtomIndices    []int          `json:"atom_indices"`
	ResidueFilter  string         `json:"residue_filter,omitempty"`
	Representation Representation `json:"representation"`
	ColorScheme    ColorScheme    `json:"color_scheme"`
	Visible        bool           `json:"visible"`
}

// Classification is the result of running the classification engine over a
// molecule: which component types are present and how atoms partition into
// them. Nil for simple single-component molecules.
type Classification struct {
	Types            []ComponentType         `json:"types"`
	HasMultipleTypes bool                    `json:"has_multiple_types"`
	AtomCount        int                     `json:"atom_count"`
	Partition        map[ComponentType][]int `json:"partition,omitempty"`
}

// Structure is one loaded molecule instance in the scene, together with its
// render, visibility and layout settings. The molecule itself is immutable
// post-load; everything else is owned and mutated by the store.
type Structure struct {
	ID                StructureID         `json:"id"`
	Molecule          *Molecule           `json:"molecule"`
	Representation    Representation      `json:"representation"`
	ColorScheme       ColorScheme         `json:"color_scheme"`
	Visible           bool                `json:"visible"`
	Offset            Vec3                `json:"offset"`
	Classification    *Classification     `json:"classification,omitempty"`
	ComponentSettings []ComponentSettings `json:"component_settings,omitempty"`
}

// cloneComponentSettings deep-copies the settings slice. AtomIndices slices
// are shared: the partition is fixed at classification time and never mutated.
func cloneComponentSettings(in []ComponentSettings) []ComponentSettings {
	if len(in) == 0 {
		return nil
	}
	out := make([]ComponentSettings, len(in))
	copy(out, in)
	return out
}

// clone returns a copy of the structure whose mutable fields are independent
// of the original. Molecule and Classification are shared (immutable post-load).
func (st *Structure) clone() *Structure {
	cp := *st
	cp.ComponentSettings = cloneComponentSettings(st.ComponentSettings)
	return &cp
}
