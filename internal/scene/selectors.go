package scene

import (
	"fmt"
	"strings"
)

// StructureRenderData is the per-structure payload the renderer consumes.
// The molecule is a shared reference; it is immutable post-load, so the
// renderer may hold it across frames.
type StructureRenderData struct {
	ID                StructureID         `json:"id"`
	Molecule          *Molecule           `json:"molecule"`
	Representation    Representation      `json:"representation"`
	ColorScheme       ColorScheme         `json:"color_scheme"`
	ComponentSettings []ComponentSettings `json:"component_settings,omitempty"`
	Classification    *Classification     `json:"classification,omitempty"`
	Offset            Vec3                `json:"offset"`
}

// selectorCaches holds one cached result per derived view, each keyed by a
// version string built from only the fields that view depends on. The caches
// belong to the store instance and are dropped wholesale on reset/restore.
type selectorCaches struct {
	visibleKey string
	visibleIDs []StructureID

	countKey  string
	atomCount int

	bboxKey string
	bbox    BoundingBox
	bboxOK  bool

	renderKey string
	render    []*StructureRenderData
	renderPer map[StructureID]renderEntry

	selVersion uint64
	selActive  StructureID
	selValid   bool
	selIndices []int
}

type renderEntry struct {
	key  string
	data *StructureRenderData
}

// visibleKeyLocked depends only on order and visibility flags.
func (s *Store) visibleKeyLocked() string {
	var b strings.Builder
	for _, id := range s.order {
		b.WriteString(string(id))
		if s.structures[id].Visible {
			b.WriteString(":1|")
		} else {
			b.WriteString(":0|")
		}
	}
	return b.String()
}

// VisibleStructureIDs returns the ids of visible structures in scene order.
// The returned slice is reference-stable while order and visibility are
// unchanged.
func (s *Store) VisibleStructureIDs() []StructureID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleStructureIDsLocked()
}

func (s *Store) visibleStructureIDsLocked() []StructureID {
	key := s.visibleKeyLocked()
	if key == s.caches.visibleKey && s.caches.visibleIDs != nil {
		return s.caches.visibleIDs
	}
	ids := make([]StructureID, 0, len(s.order))
	for _, id := range s.order {
		if s.structures[id].Visible {
			ids = append(ids, id)
		}
	}
	s.caches.visibleKey = key
	s.caches.visibleIDs = ids
	return ids
}

// VisibleAtomCount returns the total atom count across visible structures.
func (s *Store) VisibleAtomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString(s.visibleKeyLocked())
	for _, id := range s.order {
		st := s.structures[id]
		if st.Visible {
			fmt.Fprintf(&b, "%d|", st.Molecule.AtomCount())
		}
	}
	key := b.String()
	if key == s.caches.countKey && s.caches.countKey != "" {
		return s.caches.atomCount
	}

	total := 0
	for _, id := range s.order {
		if st := s.structures[id]; st.Visible {
			total += st.Molecule.AtomCount()
		}
	}
	s.caches.countKey = key
	s.caches.atomCount = total
	return total
}

// VisibleBoundingBox returns the union of visible structures' bounding boxes
// with their layout offsets applied; ok is false when nothing is visible.
// Keyed by order, visibility, atom count and offset per structure.
func (s *Store) VisibleBoundingBox() (BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, id := range s.order {
		st := s.structures[id]
		fmt.Fprintf(&b, "%s:%t:%d:%g,%g,%g|", id, st.Visible, st.Molecule.AtomCount(),
			st.Offset.X, st.Offset.Y, st.Offset.Z)
	}
	key := b.String()
	if key == s.caches.bboxKey && s.caches.bboxKey != "" {
		return s.caches.bbox, s.caches.bboxOK
	}

	var union BoundingBox
	found := false
	for _, id := range s.order {
		st := s.structures[id]
		if !st.Visible {
			continue
		}
		box, ok := st.Molecule.BoundingBox()
		if !ok {
			continue
		}
		box = box.Translate(st.Offset)
		if !found {
			union = box
			found = true
		} else {
			union = union.Union(box)
		}
	}
	s.caches.bboxKey = key
	s.caches.bbox = union
	s.caches.bboxOK = found
	return union, found
}

// renderEntryKey depends on representation, color scheme, offset, a summary of
// the component settings, and the bond count (bonds can arrive late from the
// background inferencer). It deliberately excludes molecule content.
func renderEntryKey(st *Structure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s:%g,%g,%g:%d|", st.Representation, st.ColorScheme,
		st.Offset.X, st.Offset.Y, st.Offset.Z, len(st.Molecule.Bonds))
	for _, cs := range st.ComponentSettings {
		fmt.Fprintf(&b, "%s:%s:%s:%t|", cs.Type, cs.Representation, cs.ColorScheme, cs.Visible)
	}
	return b.String()
}

// RenderData returns one payload per visible structure in scene order. Both
// the slice and each payload are reference-stable: a payload is rebuilt only
// when its own key changes, and the slice only when any payload or the
// visible set changes.
func (s *Store) RenderData() []*StructureRenderData {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.visibleStructureIDsLocked()

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(string(id))
		b.WriteByte('@')
		b.WriteString(renderEntryKey(s.structures[id]))
	}
	key := b.String()
	if key == s.caches.renderKey && s.caches.render != nil {
		return s.caches.render
	}

	if s.caches.renderPer == nil {
		s.caches.renderPer = make(map[StructureID]renderEntry)
	}

	out := make([]*StructureRenderData, 0, len(ids))
	seen := make(map[StructureID]struct{}, len(ids))
	for _, id := range ids {
		st := s.structures[id]
		ek := renderEntryKey(st)
		entry, ok := s.caches.renderPer[id]
		if !ok || entry.key != ek {
			entry = renderEntry{key: ek, data: &StructureRenderData{
				ID:                st.ID,
				Molecule:          st.Molecule,
				Representation:    st.Representation,
				ColorScheme:       st.ColorScheme,
				ComponentSettings: cloneComponentSettings(st.ComponentSettings),
				Classification:    st.Classification,
				Offset:            st.Offset,
			}}
			s.caches.renderPer[id] = entry
		}
		out = append(out, entry.data)
		seen[id] = struct{}{}
	}
	for id := range s.caches.renderPer {
		if _, ok := seen[id]; !ok {
			delete(s.caches.renderPer, id)
		}
	}

	s.caches.renderKey = key
	s.caches.render = out
	return out
}

// ActiveSelectedAtomIndices filters the global selection down to the active
// structure's atom indices, in pick order. Keyed by selection version and the
// active id.
func (s *Store) ActiveSelectedAtomIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.caches.selValid && s.caches.selVersion == s.selVersion && s.caches.selActive == s.active {
		return s.caches.selIndices
	}

	indices := make([]int, 0, len(s.selection))
	for _, r := range s.selection {
		if r.StructureID == s.active {
			indices = append(indices, r.AtomIndex)
		}
	}
	s.caches.selVersion = s.selVersion
	s.caches.selActive = s.active
	s.caches.selValid = true
	s.caches.selIndices = indices
	return indices
}
