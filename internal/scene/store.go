package scene

import (
	"errors"
	"sync"
)

// LoadMode controls whether a new structure joins the scene or replaces it.
type LoadMode string

const (
	LoadAdd     LoadMode = "add"
	LoadReplace LoadMode = "replace"
)

// LayoutMode selects how visible structures are placed in space.
type LayoutMode string

const (
	LayoutOverlay    LayoutMode = "overlay"
	LayoutSideBySide LayoutMode = "side-by-side"
)

var (
	// ErrCapacityExceeded is returned when loading would exceed the scene's
	// structure capacity. The store is left completely unchanged.
	ErrCapacityExceeded = errors.New("structure capacity exceeded")

	// ErrUnknownStructure is returned by operations that require an existing
	// structure id.
	ErrUnknownStructure = errors.New("unknown structure")

	// ErrEmptyMolecule is returned when a load is attempted with no atoms.
	ErrEmptyMolecule = errors.New("molecule has no atoms")
)

// Store owns every loaded structure, the cross-structure selection,
// measurements, labels, the layout mode and the undo journal. It is the sole
// writer of all of them; collaborators read through selectors and propose
// mutations through the operation set below. Every operation is an atomic
// state transition under one lock.
type Store struct {
	mu         sync.RWMutex
	sceneID    string
	policy     Policy
	classifier Classifier
	inferencer BondInferencer
	logger     Logger
	hub        *EventHub

	structures map[StructureID]*Structure
	order      []StructureID
	active     StructureID
	layoutMode LayoutMode

	selection    []AtomRef
	selVersion   uint64
	measureMode  MeasureKind
	pending      []AtomRef
	measurements []Measurement
	labels       []Label
	hover        *AtomRef

	bondReqSeq uint64
	bondReqs   map[StructureID]uint64

	journal *journal
	caches  selectorCaches
}

// NewStore creates a store with the given policy and no logging.
func NewStore(policy Policy) *Store {
	return NewStoreWithLogger(policy, NewNoOpLogger())
}

// NewStoreWithLogger creates a store with the given policy and logger.
// Zero-valued policy fields are filled in from DefaultPolicy.
func NewStoreWithLogger(policy Policy, logger Logger) *Store {
	def := DefaultPolicy()
	if policy.MaxStructures <= 0 {
		policy.MaxStructures = def.MaxStructures
	}
	if policy.LargeAtomThreshold <= 0 {
		policy.LargeAtomThreshold = def.LargeAtomThreshold
	}
	if policy.BondOffloadAtoms <= 0 {
		policy.BondOffloadAtoms = def.BondOffloadAtoms
	}
	if policy.LayoutGap <= 0 {
		policy.LayoutGap = def.LayoutGap
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &Store{
		policy:     policy,
		classifier: NewClassifier(policy),
		logger:     logger,
		structures: make(map[StructureID]*Structure),
		layoutMode: LayoutSideBySide,
		bondReqs:   make(map[StructureID]uint64),
		journal:    newJournal(policy.HistoryLimit),
	}
}

// SetSceneID tags events emitted by this store with the given scene id.
func (s *Store) SetSceneID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sceneID = id
}

// SetEventHub wires the store to an event hub. Pass nil to disable events.
func (s *Store) SetEventHub(hub *EventHub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub = hub
}

// SetClassifier replaces the classification engine used at load time.
func (s *Store) SetClassifier(c Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != nil {
		s.classifier = c
	}
}

// SetBondInferencer wires the store to a bond inference capability. When nil,
// all inference runs inline on the loading goroutine.
func (s *Store) SetBondInferencer(bi BondInferencer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inferencer = bi
}

func (s *Store) emitLocked(kind EventKind, sid StructureID) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(SceneEvent{
		SceneID:        s.sceneID,
		Kind:           kind,
		StructureID:    sid,
		StructureCount: len(s.structures),
		CanUndo:        s.journal.canUndo(),
		CanRedo:        s.journal.canRedo(),
	})
}

// clearSceneLocked empties every piece of scene state except the journal.
func (s *Store) clearSceneLocked() {
	s.structures = make(map[StructureID]*Structure)
	s.order = nil
	s.active = ""
	s.selection = nil
	s.selVersion++
	s.pending = nil
	s.measurements = nil
	s.labels = nil
	s.hover = nil
	s.bondReqs = make(map[StructureID]uint64)
	s.caches = selectorCaches{}
}

// LoadStructure inserts a molecule into the scene. In replace mode all
// existing structures are cleared first (cascading selection, measurements,
// labels and layout). In add mode the insert is rejected atomically with
// ErrCapacityExceeded when it would exceed the capacity. The new structure
// always becomes active. Classification runs exactly once, here.
func (s *Store) LoadStructure(mol *Molecule, mode LoadMode) (StructureID, error) {
	if mol == nil || len(mol.Atoms) == 0 {
		return "", ErrEmptyMolecule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == LoadReplace {
		s.clearSceneLocked()
	} else if len(s.structures) >= s.policy.MaxStructures {
		return "", ErrCapacityExceeded
	}

	mol, deferred := s.resolveBondsLocked(mol)

	cls, compSettings, rep, scheme := s.classifier.Classify(mol)

	st := &Structure{
		ID:                NewStructureID(),
		Molecule:          mol,
		Representation:    rep,
		ColorScheme:       scheme,
		Visible:           true,
		Classification:    cls,
		ComponentSettings: compSettings,
	}

	s.structures[st.ID] = st
	s.order = append(s.order, st.ID)
	s.active = st.ID
	s.recomputeLayoutLocked()
	s.journal.record(s.captureLocked())
	s.emitLocked(EventStructureLoaded, st.ID)

	if deferred != nil {
		deferred(st.ID)
	}
	return st.ID, nil
}

// resolveBondsLocked decides how missing bonds are derived. Small molecules
// (or any molecule when no inferencer is wired) get bonds inline before the
// load commits. Large molecules commit bond-less and receive bonds later as an
// ordinary mutation; stale results are discarded by request id.
func (s *Store) resolveBondsLocked(mol *Molecule) (*Molecule, func(StructureID)) {
	if len(mol.Bonds) > 0 {
		return mol, nil
	}

	if s.inferencer == nil || len(mol.Atoms) <= s.policy.BondOffloadAtoms {
		withBonds := *mol
		withBonds.Bonds = InferBonds(mol)
		return &withBonds, nil
	}

	s.bondReqSeq++
	req := BondRequest{ID: s.bondReqSeq, Molecule: mol}
	ch, err := s.inferencer.Infer(req)
	if err != nil {
		s.logger.Warnf("bond inferencer unavailable, computing inline: %v", err)
		withBonds := *mol
		withBonds.Bonds = InferBonds(mol)
		return &withBonds, nil
	}

	return mol, func(sid StructureID) {
		s.bondReqs[sid] = req.ID
		go func() {
			res, ok := <-ch
			if !ok {
				res = BondResult{ID: req.ID, Err: errors.New("bond inferencer closed")}
			}
			s.applyInferredBonds(sid, req.ID, res)
		}()
	}
}

// applyInferredBonds commits an asynchronous bond inference result. Results
// for removed structures or superseded requests are dropped.
func (s *Store) applyInferredBonds(sid StructureID, reqID uint64, res BondResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.structures[sid]
	if !ok || s.bondReqs[sid] != reqID {
		s.logger.Debugf("discarding stale bond result: structure=%s req=%d", sid, reqID)
		return
	}
	delete(s.bondReqs, sid)

	bonds := res.Bonds
	if res.Err != nil {
		s.logger.Warnf("bond worker failed, computing inline: structure=%s error=%v", sid, res.Err)
		bonds = InferBonds(st.Molecule)
	}

	withBonds := *st.Molecule
	withBonds.Bonds = bonds
	st.Molecule = &withBonds
	s.emitLocked(EventBondsInferred, sid)
}

// RemoveStructure deletes a structure and cascades: selection, pending
// measurement refs, measurements and labels referencing it are dropped. If it
// was active, the preceding structure in order becomes active (the next one
// when the first was removed, none when the scene is now empty). Stale ids
// are logged and ignored.
func (s *Store) RemoveStructure(id StructureID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.structures[id]; !ok {
		s.logger.Warnf("remove ignored, unknown structure: %s", id)
		return
	}

	idx := s.indexInOrderLocked(id)
	delete(s.structures, id)
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	delete(s.bondReqs, id)
	s.cascadeDeselectLocked(id)

	if s.active == id {
		switch {
		case len(s.order) == 0:
			s.active = ""
		case idx > 0:
			s.active = s.order[idx-1]
		default:
			s.active = s.order[0]
		}
	}

	s.recomputeLayoutLocked()
	s.journal.record(s.captureLocked())
	s.emitLocked(EventStructureRemoved, id)
}

func (s *Store) indexInOrderLocked(id StructureID) int {
	for i, oid := range s.order {
		if oid == id {
			return i
		}
	}
	return -1
}

// SetActiveStructure changes the active pointer. No-op when already active;
// unknown ids are logged and ignored. Explicit activation is not a history
// step (only activation changes caused by add/remove are journaled).
func (s *Store) SetActiveStructure(id StructureID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.active {
		return
	}
	if _, ok := s.structures[id]; !ok {
		s.logger.Warnf("activate ignored, unknown structure: %s", id)
		return
	}
	s.active = id
	s.emitLocked(EventActiveChanged, id)
}

// SetStructureRepresentation changes one structure's representation.
func (s *Store) SetStructureRepresentation(id StructureID, rep Representation) {
	if !ValidRepresentation(rep) {
		s.logger.Warnf("invalid representation ignored: %s", rep)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.structures[id]
	if !ok {
		s.logger.Warnf("representation change ignored, unknown structure: %s", id)
		return
	}
	if st.Representation == rep {
		return
	}
	st.Representation = rep
	s.journal.record(s.captureLocked())
	s.emitLocked(EventSettingsChanged, id)
}

// SetStructureColorScheme changes one structure's color scheme.
func (s *Store) SetStructureColorScheme(id StructureID, scheme ColorScheme) {
	if !ValidColorScheme(scheme) {
		s.logger.Warnf("invalid color scheme ignored: %s", scheme)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.structures[id]
	if !ok {
		s.logger.Warnf("color scheme change ignored, unknown structure: %s", id)
		return
	}
	if st.ColorScheme == scheme {
		return
	}
	st.ColorScheme = scheme
	s.journal.record(s.captureLocked())
	s.emitLocked(EventSettingsChanged, id)
}

// SetStructureVisibility toggles one structure's visibility. Hidden structures
// keep their representation and color scheme; layout is recomputed because
// hidden structures do not participate in offset assignment.
func (s *Store) SetStructureVisibility(id StructureID, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.structures[id]
	if !ok {
		s.logger.Warnf("visibility change ignored, unknown structure: %s", id)
		return
	}
	if st.Visible == visible {
		return
	}
	st.Visible = visible
	s.recomputeLayoutLocked()
	s.journal.record(s.captureLocked())
	s.emitLocked(EventSettingsChanged, id)
}

// SetLayoutMode switches between overlay and side-by-side placement and
// recomputes every visible structure's offset. Layout mode is not a history
// step.
func (s *Store) SetLayoutMode(mode LayoutMode) {
	if mode != LayoutOverlay && mode != LayoutSideBySide {
		s.logger.Warnf("invalid layout mode ignored: %s", mode)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == s.layoutMode {
		return
	}
	s.layoutMode = mode
	s.recomputeLayoutLocked()
	s.emitLocked(EventLayoutChanged, "")
}

// Undo steps the journal back one entry and restores the journaled slice of
// state. Returns false (no-op) when there is nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.journal.undo(s.captureLocked())
	if !ok {
		return false
	}
	s.restoreLocked(snap)
	s.emitLocked(EventUndo, "")
	return true
}

// Redo steps the journal forward one entry. Returns false when there is
// nothing to redo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.journal.redo()
	if !ok {
		return false
	}
	s.restoreLocked(snap)
	s.emitLocked(EventRedo, "")
	return true
}

// CanUndo reports whether an undo step is available.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.journal.canUndo()
}

// CanRedo reports whether a redo step is available.
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.journal.canRedo()
}

// HistoryDepths returns the undo and redo stack lengths, for UI availability
// feedback.
func (s *Store) HistoryDepths() (past, future int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.journal.depths()
}

// Reset clears the whole scene, the journal and every selector cache.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSceneLocked()
	s.journal.reset()
	s.emitLocked(EventSceneReset, "")
}

// StructureCount returns the number of loaded structures.
func (s *Store) StructureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.structures)
}

// ActiveStructure returns the active structure id, or "" when the scene is
// empty.
func (s *Store) ActiveStructure() StructureID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Structure returns a copy of one structure's record.
func (s *Store) Structure(id StructureID) (*Structure, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.structures[id]
	if !ok {
		return nil, false
	}
	return st.clone(), true
}

// Structures returns copies of all structures in scene order.
func (s *Store) Structures() []*Structure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Structure, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.structures[id].clone())
	}
	return out
}

// StructureOrder returns the scene order of structure ids.
func (s *Store) StructureOrder() []StructureID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StructureID, len(s.order))
	copy(out, s.order)
	return out
}

// LayoutMode returns the current layout mode.
func (s *Store) LayoutMode() LayoutMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layoutMode
}

// Policy returns the store's policy values.
func (s *Store) Policy() Policy {
	return s.policy
}
