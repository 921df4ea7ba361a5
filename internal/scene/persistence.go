package scene

import (
	"encoding/json"
	"fmt"
)

// SessionSnapshot is a point-in-time JSON-serializable capture of a scene:
// every structure with its settings, the order, the active pointer, layout
// mode, selection, measurements and labels.
type SessionSnapshot struct {
	SceneID      string        `json:"scene_id,omitempty"`
	LayoutMode   LayoutMode    `json:"layout_mode"`
	Active       StructureID   `json:"active,omitempty"`
	Structures   []*Structure  `json:"structures"`
	Selection    []AtomRef     `json:"selection,omitempty"`
	Measurements []Measurement `json:"measurements,omitempty"`
	Labels       []Label       `json:"labels,omitempty"`
}

// SessionSnapshot captures the current scene state for persistence.
func (s *Store) SessionSnapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		SceneID:    s.sceneID,
		LayoutMode: s.layoutMode,
		Active:     s.active,
	}
	for _, id := range s.order {
		snap.Structures = append(snap.Structures, s.structures[id].clone())
	}
	snap.Selection = append([]AtomRef(nil), s.selection...)
	snap.Labels = append([]Label(nil), s.labels...)
	for _, m := range s.measurements {
		m.AtomRefs = append([]AtomRef(nil), m.AtomRefs...)
		snap.Measurements = append(snap.Measurements, m)
	}
	return snap
}

// RestoreSession replaces the scene with a persisted snapshot. The snapshot
// is validated first; the journal restarts from the restored state.
func (s *Store) RestoreSession(snap SessionSnapshot) error {
	if err := ValidateSession(snap); err != nil {
		return err
	}
	if len(snap.Structures) > s.policy.MaxStructures {
		return fmt.Errorf("%w: snapshot holds %d structures", ErrCapacityExceeded, len(snap.Structures))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearSceneLocked()
	s.journal.reset()

	if snap.LayoutMode == LayoutOverlay || snap.LayoutMode == LayoutSideBySide {
		s.layoutMode = snap.LayoutMode
	}
	for _, st := range snap.Structures {
		cp := st.clone()
		s.structures[cp.ID] = cp
		s.order = append(s.order, cp.ID)
	}
	s.active = snap.Active
	if _, ok := s.structures[s.active]; !ok {
		s.active = ""
		if len(s.order) > 0 {
			s.active = s.order[len(s.order)-1]
		}
	}
	s.selection = append([]AtomRef(nil), snap.Selection...)
	s.selVersion++
	s.labels = append([]Label(nil), snap.Labels...)
	for _, m := range snap.Measurements {
		m.AtomRefs = append([]AtomRef(nil), m.AtomRefs...)
		s.measurements = append(s.measurements, m)
	}

	s.recomputeLayoutLocked()
	s.journal.record(s.captureLocked())
	s.emitLocked(EventSceneReset, "")
	return nil
}

// ValidateSession performs validation checks on a session snapshot.
// It verifies that:
//   - All structure IDs are non-empty and unique
//   - Every structure carries a molecule with at least one atom
//   - Selection, measurement and label references point at known structures
//     and in-range atom indices
//
// Returns an error if validation fails, nil otherwise.
func ValidateSession(snap SessionSnapshot) error {
	atomCounts := make(map[StructureID]int, len(snap.Structures))
	for i, st := range snap.Structures {
		if st == nil {
			return fmt.Errorf("structure at index %d is nil", i)
		}
		if st.ID == "" {
			return fmt.Errorf("structure at index %d has empty ID", i)
		}
		if _, exists := atomCounts[st.ID]; exists {
			return fmt.Errorf("duplicate structure ID: %s", st.ID)
		}
		if st.Molecule == nil || len(st.Molecule.Atoms) == 0 {
			return fmt.Errorf("structure %s has no atoms", st.ID)
		}
		atomCounts[st.ID] = len(st.Molecule.Atoms)
	}

	checkRef := func(kind string, r AtomRef) error {
		n, ok := atomCounts[r.StructureID]
		if !ok {
			return fmt.Errorf("%s references unknown structure: %s", kind, r.StructureID)
		}
		if r.AtomIndex < 0 || r.AtomIndex >= n {
			return fmt.Errorf("%s references out-of-range atom %d in structure %s", kind, r.AtomIndex, r.StructureID)
		}
		return nil
	}

	for _, r := range snap.Selection {
		if err := checkRef("selection", r); err != nil {
			return err
		}
	}
	for _, m := range snap.Measurements {
		if len(m.AtomRefs) != m.Kind.RequiredAtoms() {
			return fmt.Errorf("measurement %s has %d refs, kind %s needs %d", m.ID, len(m.AtomRefs), m.Kind, m.Kind.RequiredAtoms())
		}
		for _, r := range m.AtomRefs {
			if err := checkRef("measurement", r); err != nil {
				return err
			}
		}
	}
	for _, l := range snap.Labels {
		if err := checkRef("label", AtomRef{StructureID: l.StructureID, AtomIndex: l.AtomIndex}); err != nil {
			return err
		}
	}
	return nil
}

// EncodeSessionJSON encodes a session snapshot to JSON format.
func EncodeSessionJSON(snap SessionSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

// DecodeSessionJSON decodes a session snapshot from JSON format.
func DecodeSessionJSON(data []byte) (SessionSnapshot, error) {
	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return SessionSnapshot{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return snap, nil
}
