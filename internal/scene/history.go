package scene

// sceneSnapshot is a value capture of the journaled slice of store state:
// structures (with their settings and offsets), order, the active pointer,
// the committed selection, measurements and labels. Hover, camera pose, the
// in-progress measurement accumulator and layout mode are deliberately
// outside the slice and untouched by undo/redo.
type sceneSnapshot struct {
	structures   map[StructureID]*Structure
	order        []StructureID
	active       StructureID
	selection    []AtomRef
	measurements []Measurement
	labels       []Label
}

// captureLocked deep-copies the journaled slice. Molecules and classifications
// are shared: both are immutable post-load.
func (s *Store) captureLocked() sceneSnapshot {
	snap := sceneSnapshot{
		structures: make(map[StructureID]*Structure, len(s.structures)),
		order:      append([]StructureID(nil), s.order...),
		active:     s.active,
	}
	for id, st := range s.structures {
		snap.structures[id] = st.clone()
	}
	snap.selection = append([]AtomRef(nil), s.selection...)
	snap.labels = append([]Label(nil), s.labels...)
	snap.measurements = make([]Measurement, 0, len(s.measurements))
	for _, m := range s.measurements {
		m.AtomRefs = append([]AtomRef(nil), m.AtomRefs...)
		snap.measurements = append(snap.measurements, m)
	}
	return snap
}

// restoreLocked replaces the journaled slice with the snapshot's values.
// Structures that survived in the meantime keep their live molecule pointer,
// so bonds inferred asynchronously after the snapshot was taken are not lost.
// Selector caches are dropped wholesale.
func (s *Store) restoreLocked(snap sceneSnapshot) {
	prev := s.structures
	s.structures = make(map[StructureID]*Structure, len(snap.structures))
	for id, st := range snap.structures {
		cp := st.clone()
		if live, ok := prev[id]; ok && live.Molecule.AtomCount() == cp.Molecule.AtomCount() {
			cp.Molecule = live.Molecule
		}
		s.structures[id] = cp
	}
	s.order = append([]StructureID(nil), snap.order...)
	s.active = snap.active
	s.selection = append([]AtomRef(nil), snap.selection...)
	s.selVersion++
	s.labels = append([]Label(nil), snap.labels...)
	s.measurements = make([]Measurement, 0, len(snap.measurements))
	for _, m := range snap.measurements {
		m.AtomRefs = append([]AtomRef(nil), m.AtomRefs...)
		s.measurements = append(s.measurements, m)
	}
	s.pending = nil
	s.caches = selectorCaches{}
}

// snapshotsEqual compares two snapshots by value: structure-by-structure by
// id, settings field-by-field, never by container identity. Empty and absent
// collections compare equal.
func snapshotsEqual(a, b sceneSnapshot) bool {
	if a.active != b.active {
		return false
	}
	if len(a.order) != len(b.order) {
		return false
	}
	for i := range a.order {
		if a.order[i] != b.order[i] {
			return false
		}
	}
	if len(a.structures) != len(b.structures) {
		return false
	}
	for id, sa := range a.structures {
		sb, ok := b.structures[id]
		if !ok || !structuresEqual(sa, sb) {
			return false
		}
	}
	if !refsEqual(a.selection, b.selection) {
		return false
	}
	if len(a.measurements) != len(b.measurements) {
		return false
	}
	for i := range a.measurements {
		if !measurementsEqual(a.measurements[i], b.measurements[i]) {
			return false
		}
	}
	if len(a.labels) != len(b.labels) {
		return false
	}
	for i := range a.labels {
		if a.labels[i] != b.labels[i] {
			return false
		}
	}
	return true
}

func structuresEqual(a, b *Structure) bool {
	if a.ID != b.ID ||
		a.Representation != b.Representation ||
		a.ColorScheme != b.ColorScheme ||
		a.Visible != b.Visible ||
		a.Offset != b.Offset {
		return false
	}
	if a.Molecule.AtomCount() != b.Molecule.AtomCount() {
		return false
	}
	if !classificationsEqual(a.Classification, b.Classification) {
		return false
	}
	if len(a.ComponentSettings) != len(b.ComponentSettings) {
		return false
	}
	for i := range a.ComponentSettings {
		if !componentSettingsEqual(a.ComponentSettings[i], b.ComponentSettings[i]) {
			return false
		}
	}
	return true
}

func classificationsEqual(a, b *Classification) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.HasMultipleTypes != b.HasMultipleTypes || a.AtomCount != b.AtomCount {
		return false
	}
	if len(a.Types) != len(b.Types) {
		return false
	}
	for i := range a.Types {
		if a.Types[i] != b.Types[i] {
			return false
		}
	}
	if len(a.Partition) != len(b.Partition) {
		return false
	}
	for t, ia := range a.Partition {
		ib, ok := b.Partition[t]
		if !ok || !intsEqual(ia, ib) {
			return false
		}
	}
	return true
}

func componentSettingsEqual(a, b ComponentSettings) bool {
	return a.Type == b.Type &&
		a.ResidueFilter == b.ResidueFilter &&
		a.Representation == b.Representation &&
		a.ColorScheme == b.ColorScheme &&
		a.Visible == b.Visible &&
		intsEqual(a.AtomIndices, b.AtomIndices)
}

func measurementsEqual(a, b Measurement) bool {
	return a.ID == b.ID && a.Kind == b.Kind && a.Value == b.Value && refsEqual(a.AtomRefs, b.AtomRefs)
}

func refsEqual(a, b []AtomRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// journal is the linear undo/redo timeline. The past stack holds the snapshot
// taken after each journaled action; the current state always matches the top
// entry. A new action after an undo clears the future stack.
type journal struct {
	past   []sceneSnapshot
	future []sceneSnapshot
	limit  int
}

func newJournal(limit int) *journal {
	return &journal{limit: limit}
}

// record pushes a snapshot unless it is value-equal to the current top, which
// keeps no-op actions (clicking the already-active representation) out of the
// timeline. Returns whether an entry was pushed.
func (j *journal) record(snap sceneSnapshot) bool {
	if len(j.past) > 0 && snapshotsEqual(snap, j.past[len(j.past)-1]) {
		return false
	}
	j.past = append(j.past, snap)
	j.future = nil
	if j.limit > 0 && len(j.past) > j.limit {
		j.past = j.past[len(j.past)-j.limit:]
	}
	return true
}

// undo pops the top entry, parks the current state on the future stack and
// returns the state to restore: the new top, or the initial empty state when
// the past stack drained. ok is false when there was nothing to undo.
func (j *journal) undo(current sceneSnapshot) (sceneSnapshot, bool) {
	if len(j.past) == 0 {
		return sceneSnapshot{}, false
	}
	j.past = j.past[:len(j.past)-1]
	j.future = append(j.future, current)
	if len(j.past) > 0 {
		return j.past[len(j.past)-1], true
	}
	return emptySnapshot(), true
}

// redo pops the future stack and re-applies that state.
func (j *journal) redo() (sceneSnapshot, bool) {
	if len(j.future) == 0 {
		return sceneSnapshot{}, false
	}
	snap := j.future[len(j.future)-1]
	j.future = j.future[:len(j.future)-1]
	j.past = append(j.past, snap)
	return snap, true
}

func (j *journal) canUndo() bool { return len(j.past) > 0 }
func (j *journal) canRedo() bool { return len(j.future) > 0 }

// Depths returns the past and future stack lengths.
func (j *journal) depths() (int, int) { return len(j.past), len(j.future) }

func (j *journal) reset() {
	j.past = nil
	j.future = nil
}

func emptySnapshot() sceneSnapshot {
	return sceneSnapshot{structures: make(map[StructureID]*Structure)}
}
