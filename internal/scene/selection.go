package scene

import (
	"math"

	"github.com/google/uuid"
)

// AtomRef is a qualified atom reference: an atom identified across structures
// by (structure id, atom index).
type AtomRef struct {
	StructureID StructureID `json:"structure_id"`
	AtomIndex   int         `json:"atom_index"`
}

// MeasureKind is the kind of geometric measurement being taken.
type MeasureKind string

const (
	MeasureDistance MeasureKind = "distance"
	MeasureAngle    MeasureKind = "angle"
	MeasureDihedral MeasureKind = "dihedral"
)

// RequiredAtoms returns how many atoms the measurement kind needs.
func (k MeasureKind) RequiredAtoms() int {
	switch k {
	case MeasureDistance:
		return 2
	case MeasureAngle:
		return 3
	case MeasureDihedral:
		return 4
	}
	return 0
}

// Measurement is a committed geometric measurement between 2-4 atoms, possibly
// spanning structures. Ref order is meaningful: the angle vertex is ref[1].
type Measurement struct {
	ID       string      `json:"id"`
	Kind     MeasureKind `json:"kind"`
	AtomRefs []AtomRef   `json:"atom_refs"`
	Value    float64     `json:"value"`
}

// Label is a text annotation pinned to one atom.
type Label struct {
	ID          string      `json:"id"`
	StructureID StructureID `json:"structure_id"`
	AtomIndex   int         `json:"atom_index"`
	Text        string      `json:"text"`
}

// validRefLocked checks that a qualified reference points at a live structure
// and an in-range atom index.
func (s *Store) validRefLocked(ref AtomRef) bool {
	st, ok := s.structures[ref.StructureID]
	if !ok {
		return false
	}
	return ref.AtomIndex >= 0 && ref.AtomIndex < len(st.Molecule.Atoms)
}

// worldPositionLocked is the atom position in scene space (layout offset
// applied), so cross-structure measurements are meaningful in side-by-side
// mode.
func (s *Store) worldPositionLocked(ref AtomRef) Vec3 {
	st := s.structures[ref.StructureID]
	return st.Molecule.Atoms[ref.AtomIndex].Position.Add(st.Offset)
}

// SelectAtom handles a single atom pick. In normal mode the whole selection is
// replaced by this one reference. In an active measurement mode the reference
// is appended to the in-progress accumulator instead; once the kind's required
// atom count is reached, a Measurement is committed and the accumulator
// cleared. Stale references are logged and ignored.
func (s *Store) SelectAtom(id StructureID, atomIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := AtomRef{StructureID: id, AtomIndex: atomIndex}
	if !s.validRefLocked(ref) {
		s.logger.Warnf("select ignored, invalid atom ref: structure=%s atom=%d", id, atomIndex)
		return
	}

	if s.measureMode != "" {
		s.pending = append(s.pending, ref)
		if len(s.pending) >= s.measureMode.RequiredAtoms() {
			s.commitMeasurementLocked()
		}
		return
	}

	s.selection = []AtomRef{ref}
	s.selVersion++
	s.emitLocked(EventSelectionChanged, id)
}

// commitMeasurementLocked turns the accumulated refs into a Measurement.
func (s *Store) commitMeasurementLocked() {
	refs := make([]AtomRef, len(s.pending))
	copy(refs, s.pending)
	s.pending = nil

	m := Measurement{
		ID:       uuid.NewString(),
		Kind:     s.measureMode,
		AtomRefs: refs,
		Value:    s.measureValueLocked(s.measureMode, refs),
	}
	s.measurements = append(s.measurements, m)
	s.journal.record(s.captureLocked())
	s.emitLocked(EventMeasurementAdded, "")
}

// measureValueLocked computes the measurement value from world-space atom
// positions. Distances in ångströms, angles and dihedrals in degrees.
func (s *Store) measureValueLocked(kind MeasureKind, refs []AtomRef) float64 {
	pos := make([]Vec3, len(refs))
	for i, r := range refs {
		pos[i] = s.worldPositionLocked(r)
	}
	switch kind {
	case MeasureDistance:
		return pos[1].Sub(pos[0]).Length()
	case MeasureAngle:
		return angleDeg(pos[0], pos[1], pos[2])
	case MeasureDihedral:
		return dihedralDeg(pos[0], pos[1], pos[2], pos[3])
	}
	return 0
}

// angleDeg returns the angle at vertex b, in degrees.
func angleDeg(a, b, c Vec3) float64 {
	u, v := a.Sub(b), c.Sub(b)
	lu, lv := u.Length(), v.Length()
	if lu == 0 || lv == 0 {
		return 0
	}
	cos := u.Dot(v) / (lu * lv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// dihedralDeg returns the signed torsion angle of a-b-c-d, in degrees.
func dihedralDeg(a, b, c, d Vec3) float64 {
	b1 := b.Sub(a)
	b2 := c.Sub(b)
	b3 := d.Sub(c)
	n1 := b1.Cross(b2)
	n2 := b2.Cross(b3)
	m := n1.Cross(b2.Scale(1 / b2.Length()))
	x := n1.Dot(n2)
	y := m.Dot(n2)
	return math.Atan2(y, x) * 180 / math.Pi
}

// SelectAtomsByFilter replaces the selection with every atom of the named
// structure matching the predicate, as one atomic transition producing exactly
// one history entry.
func (s *Store) SelectAtomsByFilter(id StructureID, predicate func(index int, atom Atom) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.structures[id]
	if !ok {
		s.logger.Warnf("filter select ignored, unknown structure: %s", id)
		return
	}

	refs := make([]AtomRef, 0)
	for i, a := range st.Molecule.Atoms {
		if predicate(i, a) {
			refs = append(refs, AtomRef{StructureID: id, AtomIndex: i})
		}
	}
	s.selection = refs
	s.selVersion++
	s.journal.record(s.captureLocked())
	s.emitLocked(EventSelectionChanged, id)
}

// ClearSelection empties the selection list.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.selection) == 0 {
		return
	}
	s.selection = nil
	s.selVersion++
	s.journal.record(s.captureLocked())
	s.emitLocked(EventSelectionChanged, "")
}

// UndoLastSelection removes the most recently accumulated ref of an
// in-progress measurement gesture, letting a misclick be corrected without
// abandoning the whole 2-4 atom sequence. No-op outside a measurement mode or
// with an empty accumulator.
func (s *Store) UndoLastSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return
	}
	s.pending = s.pending[:len(s.pending)-1]
}

// SetMeasurementMode enters a measurement mode (or leaves it with kind "").
// Switching modes discards any in-progress accumulation. Mode changes are
// transient and never journaled.
func (s *Store) SetMeasurementMode(kind MeasureKind) {
	if kind != "" && kind.RequiredAtoms() == 0 {
		s.logger.Warnf("invalid measurement mode ignored: %s", kind)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == s.measureMode {
		return
	}
	s.measureMode = kind
	s.pending = nil
}

// MeasurementMode returns the active measurement mode, "" when none.
func (s *Store) MeasurementMode() MeasureKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.measureMode
}

// PendingMeasurementRefs returns the in-progress measurement accumulator.
func (s *Store) PendingMeasurementRefs() []AtomRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AtomRef, len(s.pending))
	copy(out, s.pending)
	return out
}

// RemoveMeasurement deletes one measurement by id. Unknown ids are ignored.
func (s *Store) RemoveMeasurement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.measurements[:0:0]
	for _, m := range s.measurements {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(s.measurements) {
		return
	}
	s.measurements = kept
	s.journal.record(s.captureLocked())
	s.emitLocked(EventMeasurementsClear, "")
}

// ClearMeasurements deletes all measurements.
func (s *Store) ClearMeasurements() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.measurements) == 0 {
		return
	}
	s.measurements = nil
	s.journal.record(s.captureLocked())
	s.emitLocked(EventMeasurementsClear, "")
}

// Measurements returns all committed measurements.
func (s *Store) Measurements() []Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Measurement, len(s.measurements))
	copy(out, s.measurements)
	return out
}

// AddLabel pins a text label to an atom and returns the label id. Invalid
// references are logged and ignored.
func (s *Store) AddLabel(id StructureID, atomIndex int, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := AtomRef{StructureID: id, AtomIndex: atomIndex}
	if !s.validRefLocked(ref) {
		s.logger.Warnf("label ignored, invalid atom ref: structure=%s atom=%d", id, atomIndex)
		return ""
	}

	l := Label{ID: uuid.NewString(), StructureID: id, AtomIndex: atomIndex, Text: text}
	s.labels = append(s.labels, l)
	s.journal.record(s.captureLocked())
	s.emitLocked(EventLabelAdded, id)
	return l.ID
}

// RemoveLabel deletes one label by id. Unknown ids are ignored.
func (s *Store) RemoveLabel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.labels[:0:0]
	for _, l := range s.labels {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(s.labels) {
		return
	}
	s.labels = kept
	s.journal.record(s.captureLocked())
	s.emitLocked(EventLabelRemoved, "")
}

// Labels returns all labels.
func (s *Store) Labels() []Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Selection returns the committed selection in pick order.
func (s *Store) Selection() []AtomRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AtomRef, len(s.selection))
	copy(out, s.selection)
	return out
}

// SetHover records the hovered atom (nil to clear). Hover is transient: it is
// neither journaled nor part of any snapshot.
func (s *Store) SetHover(ref *AtomRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref != nil && !s.validRefLocked(*ref) {
		s.logger.Debugf("hover ignored, invalid atom ref: structure=%s atom=%d", ref.StructureID, ref.AtomIndex)
		return
	}
	s.hover = ref
}

// Hover returns the hovered atom, nil when none.
func (s *Store) Hover() *AtomRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hover == nil {
		return nil
	}
	cp := *s.hover
	return &cp
}

// cascadeDeselectLocked drops every qualified reference into the removed
// structure: selection entries, pending measurement refs, whole measurements
// and labels. Nothing may reference a deleted structure afterwards.
func (s *Store) cascadeDeselectLocked(id StructureID) {
	sel := s.selection[:0:0]
	for _, r := range s.selection {
		if r.StructureID != id {
			sel = append(sel, r)
		}
	}
	if len(sel) != len(s.selection) {
		s.selection = sel
		s.selVersion++
	}

	pend := s.pending[:0:0]
	for _, r := range s.pending {
		if r.StructureID != id {
			pend = append(pend, r)
		}
	}
	s.pending = pend

	meas := s.measurements[:0:0]
	for _, m := range s.measurements {
		references := false
		for _, r := range m.AtomRefs {
			if r.StructureID == id {
				references = true
				break
			}
		}
		if !references {
			meas = append(meas, m)
		}
	}
	s.measurements = meas

	labels := s.labels[:0:0]
	for _, l := range s.labels {
		if l.StructureID != id {
			labels = append(labels, l)
		}
	}
	s.labels = labels

	if s.hover != nil && s.hover.StructureID == id {
		s.hover = nil
	}
}
