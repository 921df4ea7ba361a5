package scene

import "math"

// Vec3 is a point or displacement in 3D space, in ångströms.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Atom is a single atom within a molecule. Element is the chemical symbol
// (e.g. "C", "Fe"); the remaining fields are optional per-atom metadata
// carried over from the source file, zero-valued when absent.
type Atom struct {
	Element    string  `json:"element"`
	Position   Vec3    `json:"position"`
	Name       string  `json:"name,omitempty"`
	Residue    string  `json:"residue,omitempty"`
	ResidueSeq int     `json:"residue_seq,omitempty"`
	Chain      string  `json:"chain,omitempty"`
	BFactor    float64 `json:"b_factor,omitempty"`
	Occupancy  float64 `json:"occupancy,omitempty"`
}

// Bond connects two atoms by index. Order 0 means undetermined.
type Bond struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Order int `json:"order,omitempty"`
}

// Molecule is a fully-parsed chemical structure. It is treated as immutable
// once handed to the store; the store never mutates atoms or bonds in place.
type Molecule struct {
	Name  string `json:"name,omitempty"`
	Atoms []Atom `json:"atoms"`
	Bonds []Bond `json:"bonds,omitempty"`
}

// AtomCount returns the number of atoms in the molecule.
func (m *Molecule) AtomCount() int {
	if m == nil {
		return 0
	}
	return len(m.Atoms)
}

// Chains returns the set of distinct chain identifiers present in the molecule.
func (m *Molecule) Chains() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, a := range m.Atoms {
		if a.Chain == "" {
			continue
		}
		if _, ok := seen[a.Chain]; ok {
			continue
		}
		seen[a.Chain] = struct{}{}
		out = append(out, a.Chain)
	}
	return out
}

// BoundingBox is an axis-aligned box enclosing a set of atom positions.
type BoundingBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

func (b BoundingBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b BoundingBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box enclosing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Translate returns the box shifted by the given offset.
func (b BoundingBox) Translate(off Vec3) BoundingBox {
	return BoundingBox{Min: b.Min.Add(off), Max: b.Max.Add(off)}
}

// BoundingBox computes the axis-aligned bounding box of the molecule's atoms.
// The second return value is false when the molecule has no atoms.
func (m *Molecule) BoundingBox() (BoundingBox, bool) {
	if m == nil || len(m.Atoms) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{Min: m.Atoms[0].Position, Max: m.Atoms[0].Position}
	for _, a := range m.Atoms[1:] {
		p := a.Position
		box.Min = Vec3{math.Min(box.Min.X, p.X), math.Min(box.Min.Y, p.Y), math.Min(box.Min.Z, p.Z)}
		box.Max = Vec3{math.Max(box.Max.X, p.X), math.Max(box.Max.Y, p.Y), math.Max(box.Max.Z, p.Z)}
	}
	return box, true
}
