package scene

import "fmt"

// Bond detection tolerances, from DOI:10.1186/1758-2946-3-33.
const (
	tooClose = 0.63
	bondTol  = 0.045
)

// Covalent radii in ångströms for the elements the viewer commonly sees.
// Unknown elements fall back to a generic carbon-like radius.
var covalentRadii = map[string]float64{
	"H": 0.31, "C": 0.76, "N": 0.71, "O": 0.66, "F": 0.57,
	"P": 1.07, "S": 1.05, "CL": 1.02, "BR": 1.20, "I": 1.39,
	"NA": 1.66, "K": 2.03, "MG": 1.41, "CA": 1.76, "ZN": 1.22,
	"FE": 1.32, "MN": 1.39, "CU": 1.32, "SE": 1.20, "B": 0.84,
}

const defaultCovalentRadius = 0.76

func covalentRadius(element string) float64 {
	if r, ok := covalentRadii[upperElement(element)]; ok {
		return r
	}
	return defaultCovalentRadius
}

// InferBonds derives covalent bonds from interatomic distances: two atoms are
// bonded when their distance falls between a too-close cutoff and the sum of
// their covalent radii plus tolerance. Order is left undetermined (0).
func InferBonds(m *Molecule) []Bond {
	bonds := make([]Bond, 0, len(m.Atoms))
	for i := 0; i < len(m.Atoms); i++ {
		ri := covalentRadius(m.Atoms[i].Element)
		pi := m.Atoms[i].Position
		for j := i + 1; j < len(m.Atoms); j++ {
			d := m.Atoms[j].Position.Sub(pi).Length()
			if d < tooClose {
				continue
			}
			max := ri + covalentRadius(m.Atoms[j].Element) + bondTol
			if d <= max {
				bonds = append(bonds, Bond{A: i, B: j})
			}
		}
	}
	return bonds
}

// BondRequest asks an inferencer to derive bonds for one molecule. ID is a
// monotonic request id the store uses to discard stale results.
type BondRequest struct {
	ID       uint64
	Molecule *Molecule
}

// BondResult is the outcome of a bond inference request.
type BondResult struct {
	ID    uint64
	Bonds []Bond
	Err   error
}

// BondInferencer is the capability the store uses for bond inference. Two
// implementations exist: an in-process synchronous one and a background
// worker. The store calls the interface and does not know which served the
// request.
type BondInferencer interface {
	// Infer submits a request. The returned channel delivers exactly one
	// result. An error return means the inferencer could not accept the
	// request (e.g. it is closed) and the caller should compute inline.
	Infer(req BondRequest) (<-chan BondResult, error)
	Close() error
}

// InlineInferencer computes bonds synchronously on the calling goroutine.
type InlineInferencer struct{}

// NewInlineInferencer creates the synchronous inferencer.
func NewInlineInferencer() *InlineInferencer {
	return &InlineInferencer{}
}

func (ii *InlineInferencer) Infer(req BondRequest) (<-chan BondResult, error) {
	if req.Molecule == nil {
		return nil, fmt.Errorf("bond request %d has no molecule", req.ID)
	}
	ch := make(chan BondResult, 1)
	ch <- BondResult{ID: req.ID, Bonds: InferBonds(req.Molecule)}
	close(ch)
	return ch, nil
}

func (ii *InlineInferencer) Close() error { return nil }
