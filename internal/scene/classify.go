package scene

import "sort"

// Policy groups the numeric cutoffs the engine treats as configuration rather
// than mechanism: the structure capacity, the atom count above which expensive
// defaults are avoided and bond inference is offloaded, and the side-by-side
// layout gap.
type Policy struct {
	// MaxStructures is the hard capacity of a scene. Inserting beyond it is
	// rejected atomically.
	MaxStructures int
	// LargeAtomThreshold is the atom count above which smart defaults fall
	// back to cheaper representations and color schemes.
	LargeAtomThreshold int
	// BondOffloadAtoms is the atom count above which bond inference is handed
	// to the background inferencer instead of running inline.
	BondOffloadAtoms int
	// LayoutGap is the spacing between bounding boxes in side-by-side layout,
	// in ångströms.
	LayoutGap float64
	// HistoryLimit caps the undo journal depth. 0 means unlimited.
	HistoryLimit int
}

// DefaultPolicy returns the built-in policy values.
func DefaultPolicy() Policy {
	return Policy{
		MaxStructures:      10,
		LargeAtomThreshold: 500,
		BondOffloadAtoms:   500,
		LayoutGap:          5.0,
		HistoryLimit:       100,
	}
}

// Classifier decides which component types a molecule contains and what the
// default render settings for a freshly-loaded structure should be. The store
// calls it exactly once per load.
type Classifier interface {
	Classify(m *Molecule) (*Classification, []ComponentSettings, Representation, ColorScheme)
}

// thresholdClassifier is the built-in residue-name based classifier.
type thresholdClassifier struct {
	policy Policy
}

// NewClassifier creates the default threshold-based classifier.
func NewClassifier(p Policy) Classifier {
	return &thresholdClassifier{policy: p}
}

// Standard residue names, used to partition atoms into component types.
var (
	aminoAcids = map[string]struct{}{
		"ALA": {}, "ARG": {}, "ASN": {}, "ASP": {}, "CYS": {},
		"GLN": {}, "GLU": {}, "GLY": {}, "HIS": {}, "ILE": {},
		"LEU": {}, "LYS": {}, "MET": {}, "PHE": {}, "PRO": {},
		"SER": {}, "THR": {}, "TRP": {}, "TYR": {}, "VAL": {},
	}
	nucleotides = map[string]struct{}{
		"A": {}, "C": {}, "G": {}, "T": {}, "U": {},
		"DA": {}, "DC": {}, "DG": {}, "DT": {},
	}
	waterResidues = map[string]struct{}{
		"HOH": {}, "WAT": {}, "H2O": {}, "SOL": {}, "TIP": {}, "TIP3": {},
	}
	ionElements = map[string]struct{}{
		"NA": {}, "K": {}, "CL": {}, "MG": {}, "CA": {}, "ZN": {},
		"FE": {}, "MN": {}, "CU": {}, "BR": {}, "I": {},
	}
)

func componentTypeOf(a Atom) ComponentType {
	res := a.Residue
	if _, ok := waterResidues[res]; ok {
		return ComponentWater
	}
	if _, ok := aminoAcids[res]; ok {
		return ComponentProtein
	}
	if _, ok := nucleotides[res]; ok {
		return ComponentNucleic
	}
	if res != "" {
		if _, ok := ionElements[upperElement(a.Element)]; ok {
			return ComponentIon
		}
		return ComponentLigand
	}
	return ComponentOther
}

func upperElement(el string) string {
	out := make([]byte, 0, len(el))
	for i := 0; i < len(el); i++ {
		c := el[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// Classify partitions the molecule's atoms by residue name. Molecules without
// residue metadata classify as a single "other" component and get nil
// classification (simple mode).
func (tc *thresholdClassifier) Classify(m *Molecule) (*Classification, []ComponentSettings, Representation, ColorScheme) {
	partition := make(map[ComponentType][]int)
	for i, a := range m.Atoms {
		t := componentTypeOf(a)
		partition[t] = append(partition[t], i)
	}

	types := make([]ComponentType, 0, len(partition))
	for t := range partition {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	rep, scheme := tc.defaults(m, partition)

	if len(types) <= 1 {
		// Single-component molecule: no classification record, no per-component
		// settings ("simple" mode).
		return nil, nil, rep, scheme
	}

	cls := &Classification{
		Types:            types,
		HasMultipleTypes: true,
		AtomCount:        len(m.Atoms),
		Partition:        partition,
	}

	settings := make([]ComponentSettings, 0, len(types))
	for _, t := range types {
		settings = append(settings, tc.componentDefaults(t, partition[t]))
	}
	return cls, settings, rep, scheme
}

// defaults picks the whole-structure representation and color scheme.
func (tc *thresholdClassifier) defaults(m *Molecule, partition map[ComponentType][]int) (Representation, ColorScheme) {
	large := len(m.Atoms) > tc.policy.LargeAtomThreshold
	_, hasProtein := partition[ComponentProtein]
	_, hasNucleic := partition[ComponentNucleic]

	rep := RepBallAndStick
	if hasProtein || hasNucleic {
		rep = RepCartoon
	} else if large {
		rep = RepStick
	}

	scheme := ColorCPK
	if len(m.Chains()) > 1 {
		scheme = ColorChain
	}
	if large && !hasProtein && !hasNucleic {
		// Expensive schemes stay off for big non-biopolymer molecules.
		scheme = ColorCPK
	}
	return rep, scheme
}

func (tc *thresholdClassifier) componentDefaults(t ComponentType, indices []int) ComponentSettings {
	cs := ComponentSettings{
		Type:        t,
		AtomIndices: indices,
		Visible:     true,
	}
	switch t {
	case ComponentProtein, ComponentNucleic:
		cs.Representation = RepCartoon
		cs.ColorScheme = ColorChain
	case ComponentLigand:
		cs.Representation = RepBallAndStick
		cs.ColorScheme = ColorCPK
	case ComponentWater:
		cs.Representation = RepStick
		cs.ColorScheme = ColorCPK
		cs.Visible = false
		cs.ResidueFilter = "HOH"
	case ComponentIon:
		cs.Representation = RepSpacefill
		cs.ColorScheme = ColorCPK
	default:
		cs.Representation = RepBallAndStick
		cs.ColorScheme = ColorCPK
	}
	return cs
}
