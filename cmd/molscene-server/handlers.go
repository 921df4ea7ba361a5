package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/molscene/molscene/internal/persist"
	"github.com/molscene/molscene/internal/scene"
)

// extractSceneID extracts the scene ID from a path like "/scene/{sceneID}/..."
// Returns the scene ID and the remaining path, or empty string if not found
func extractSceneID(path string) (scene.SceneID, string) {
	if !strings.HasPrefix(path, "/scene/") {
		return "", ""
	}

	rest := path[len("/scene/"):]
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return scene.SceneID(rest), ""
	}
	return scene.SceneID(rest[:idx]), rest[idx:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSceneRoutes dispatches /scene/{sceneID}/... requests
func (s *Server) handleSceneRoutes(w http.ResponseWriter, r *http.Request) {
	sceneID, rest := extractSceneID(r.URL.Path)
	if sceneID == "" {
		http.Error(w, "scene ID is required in path: /scene/{sceneID}/...", http.StatusBadRequest)
		return
	}
	store := s.manager.GetOrCreateScene(sceneID)

	switch {
	case rest == "/structures" && r.Method == http.MethodPost:
		s.handleLoadStructure(w, r, store)
	case rest == "/structures" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, store.Structures())
	case strings.HasPrefix(rest, "/structures/"):
		s.handleStructureRoutes(w, r, store, rest[len("/structures/"):])
	case rest == "/layout" && r.Method == http.MethodPut:
		s.handleSetLayout(w, r, store)
	case rest == "/selection" && r.Method == http.MethodPost:
		s.handleSelect(w, r, store)
	case rest == "/selection" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, store.Selection())
	case rest == "/selection" && r.Method == http.MethodDelete:
		store.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	case rest == "/selection/undo-last" && r.Method == http.MethodPost:
		store.UndoLastSelection()
		w.WriteHeader(http.StatusNoContent)
	case rest == "/measurements/mode" && r.Method == http.MethodPut:
		s.handleSetMeasureMode(w, r, store)
	case rest == "/measurements" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, store.Measurements())
	case rest == "/measurements" && r.Method == http.MethodDelete:
		store.ClearMeasurements()
		w.WriteHeader(http.StatusNoContent)
	case strings.HasPrefix(rest, "/measurements/") && r.Method == http.MethodDelete:
		store.RemoveMeasurement(rest[len("/measurements/"):])
		w.WriteHeader(http.StatusNoContent)
	case rest == "/labels" && r.Method == http.MethodPost:
		s.handleAddLabel(w, r, store)
	case rest == "/labels" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, store.Labels())
	case strings.HasPrefix(rest, "/labels/") && r.Method == http.MethodDelete:
		store.RemoveLabel(rest[len("/labels/"):])
		w.WriteHeader(http.StatusNoContent)
	case rest == "/undo" && r.Method == http.MethodPost:
		s.handleHistoryOp(w, store, "undo")
	case rest == "/redo" && r.Method == http.MethodPost:
		s.handleHistoryOp(w, store, "redo")
	case rest == "/history" && r.Method == http.MethodGet:
		s.handleHistoryStatus(w, store)
	case rest == "/render" && r.Method == http.MethodGet:
		s.handleRender(w, store)
	case rest == "/session" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, store.SessionSnapshot())
	case rest == "/session" && r.Method == http.MethodPut:
		s.handleRestoreSession(w, r, store)
	case rest == "/events" && r.Method == http.MethodGet:
		s.handleEvents(w, r)
	case rest == "" && r.Method == http.MethodDelete:
		s.handleDeleteScene(w, sceneID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// POST /scene/{sceneID}/structures?mode=add|replace
// Body: Molecule JSON
func (s *Server) handleLoadStructure(w http.ResponseWriter, r *http.Request, store *scene.Store) {
	defer r.Body.Close()

	mode := scene.LoadAdd
	if m := r.URL.Query().Get("mode"); m == string(scene.LoadReplace) {
		mode = scene.LoadReplace
	}

	var mol scene.Molecule
	if err := json.NewDecoder(r.Body).Decode(&mol); err != nil {
		http.Error(w, "invalid molecule json: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := store.LoadStructure(&mol, mode)
	switch {
	case errors.Is(err, scene.ErrCapacityExceeded):
		s.metrics.capacityRejections.Inc()
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, scene.ErrEmptyMolecule):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.metrics.structuresLoaded.Inc()
	s.logger.Infof("Structure loaded: structure=%s atoms=%d mode=%s", id, mol.AtomCount(), mode)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    id,
		"count": store.StructureCount(),
	})
}

// handleStructureRoutes dispatches /scene/{id}/structures/{sid}[/field]
func (s *Server) handleStructureRoutes(w http.ResponseWriter, r *http.Request, store *scene.Store, rest string) {
	sid := rest
	field := ""
	if idx := strings.Index(rest, "/"); idx != -1 {
		sid = rest[:idx]
		field = rest[idx+1:]
	}
	structureID := scene.StructureID(sid)

	switch {
	case field == "" && r.Method == http.MethodGet:
		st, ok := store.Structure(structureID)
		if !ok {
			http.Error(w, "unknown structure", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, st)
	case field == "" && r.Method == http.MethodDelete:
		store.RemoveStructure(structureID)
		w.WriteHeader(http.StatusNoContent)
	case field == "representation" && r.Method == http.MethodPut:
		var req struct {
			Representation scene.Representation `json:"representation"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		store.SetStructureRepresentation(structureID, req.Representation)
		w.WriteHeader(http.StatusNoContent)
	case field == "colorscheme" && r.Method == http.MethodPut:
		var req struct {
			ColorScheme scene.ColorScheme `json:"color_scheme"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		store.SetStructureColorScheme(structureID, req.ColorScheme)
		w.WriteHeader(http.StatusNoContent)
	case field == "visibility" && r.Method == http.MethodPut:
		var req struct {
			Visible bool `json:"visible"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		store.SetStructureVisibility(structureID, req.Visible)
		w.WriteHeader(http.StatusNoContent)
	case field == "active" && r.Method == http.MethodPut:
		store.SetActiveStructure(structureID)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// PUT /scene/{sceneID}/layout
// Body: { "mode": "overlay" | "side-by-side" }
func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request, store *scene.Store) {
	defer r.Body.Close()
	var req struct {
		Mode scene.LayoutMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Mode != scene.LayoutOverlay && req.Mode != scene.LayoutSideBySide {
		http.Error(w, "invalid layout mode: "+string(req.Mode), http.StatusBadRequest)
		return
	}
	store.SetLayoutMode(req.Mode)
	w.WriteHeader(http.StatusNoContent)
}

// atomFilter is the declarative filter form of bulk selection.
type atomFilter struct {
	Element string `json:"element,omitempty"`
	Chain   string `json:"chain,omitempty"`
	Residue string `json:"residue,omitempty"`
}

func (f atomFilter) matches(a scene.Atom) bool {
	if f.Element != "" && !strings.EqualFold(f.Element, a.Element) {
		return false
	}
	if f.Chain != "" && f.Chain != a.Chain {
		return false
	}
	if f.Residue != "" && f.Residue != a.Residue {
		return false
	}
	return true
}

// POST /scene/{sceneID}/selection
// Body: { "structure_id": "...", "atom_index": 3 }
//
//	or { "structure_id": "...", "filter": { "chain": "A" } }
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, store *scene.Store) {
	defer r.Body.Close()
	var req struct {
		StructureID scene.StructureID `json:"structure_id"`
		AtomIndex   *int              `json:"atom_index,omitempty"`
		Filter      *atomFilter       `json:"filter,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case req.Filter != nil:
		filter := *req.Filter
		store.SelectAtomsByFilter(req.StructureID, func(_ int, a scene.Atom) bool {
			return filter.matches(a)
		})
	case req.AtomIndex != nil:
		store.SelectAtom(req.StructureID, *req.AtomIndex)
	default:
		http.Error(w, "either atom_index or filter is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, store.Selection())
}

// PUT /scene/{sceneID}/measurements/mode
// Body: { "kind": "distance" | "angle" | "dihedral" | "" }
func (s *Server) handleSetMeasureMode(w http.ResponseWriter, r *http.Request, store *scene.Store) {
	defer r.Body.Close()
	var req struct {
		Kind scene.MeasureKind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Kind != "" && req.Kind.RequiredAtoms() == 0 {
		http.Error(w, "invalid measurement kind: "+string(req.Kind), http.StatusBadRequest)
		return
	}
	store.SetMeasurementMode(req.Kind)
	w.WriteHeader(http.StatusNoContent)
}

// POST /scene/{sceneID}/labels
// Body: { "structure_id": "...", "atom_index": 3, "text": "Fe site" }
func (s *Server) handleAddLabel(w http.ResponseWriter, r *http.Request, store *scene.Store) {
	defer r.Body.Close()
	var req struct {
		StructureID scene.StructureID `json:"structure_id"`
		AtomIndex   int               `json:"atom_index"`
		Text        string            `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	id := store.AddLabel(req.StructureID, req.AtomIndex, req.Text)
	if id == "" {
		http.Error(w, "invalid atom reference", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleHistoryOp(w http.ResponseWriter, store *scene.Store, op string) {
	var applied bool
	if op == "undo" {
		applied = store.Undo()
	} else {
		applied = store.Redo()
	}
	s.metrics.historyOps.WithLabelValues(op, boolLabel(applied)).Inc()
	s.handleHistoryStatus(w, store)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (s *Server) handleHistoryStatus(w http.ResponseWriter, store *scene.Store) {
	past, future := store.HistoryDepths()
	writeJSON(w, http.StatusOK, map[string]any{
		"can_undo": store.CanUndo(),
		"can_redo": store.CanRedo(),
		"past":     past,
		"future":   future,
	})
}

// GET /scene/{sceneID}/render
// The payload the renderer consumes: per-structure render data, the visible
// bounding box for camera fit, and the visible atom count.
func (s *Server) handleRender(w http.ResponseWriter, store *scene.Store) {
	box, ok := store.VisibleBoundingBox()
	resp := map[string]any{
		"structures":         store.RenderData(),
		"visible_atom_count": store.VisibleAtomCount(),
		"active":             store.ActiveStructure(),
		"selected_atoms":     store.ActiveSelectedAtomIndices(),
		"layout_mode":        store.LayoutMode(),
	}
	if ok {
		resp["bounding_box"] = box
	}
	writeJSON(w, http.StatusOK, resp)
}

// PUT /scene/{sceneID}/session
// Body: SessionSnapshot JSON
func (s *Server) handleRestoreSession(w http.ResponseWriter, r *http.Request, store *scene.Store) {
	defer r.Body.Close()
	snap, err := func() (scene.SessionSnapshot, error) {
		var snap scene.SessionSnapshot
		err := json.NewDecoder(r.Body).Decode(&snap)
		return snap, err
	}()
	if err != nil {
		http.Error(w, "invalid session json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := store.RestoreSession(snap); err != nil {
		http.Error(w, "cannot restore session: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /scene/{sceneID}/events — websocket upgrade
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if err := s.wsNotifier.HandleConnection(w, r); err != nil {
		s.logger.Warnf("Websocket connection failed: %v", err)
		return
	}
	s.metrics.wsClients.Set(float64(s.wsNotifier.ClientCount()))
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, id scene.SceneID) {
	if err := s.manager.DeleteScene(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSavedRoutes handles the saved-molecule index endpoints
func (s *Server) handleSavedRoutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch {
	case r.URL.Path == "/saved" && r.Method == http.MethodGet:
		index := persist.LoadSavedMolecules(ctx, s.kv, s.logger)
		if index == nil {
			index = []persist.SavedMolecule{}
		}
		writeJSON(w, http.StatusOK, index)
	case r.URL.Path == "/saved" && r.Method == http.MethodPut:
		defer r.Body.Close()
		var entry persist.SavedMolecule
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if entry.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := persist.StoreSavedMolecule(ctx, s.kv, s.logger, entry); err != nil {
			http.Error(w, "cannot store: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case strings.HasPrefix(r.URL.Path, "/saved/") && r.Method == http.MethodDelete:
		name := r.URL.Path[len("/saved/"):]
		if err := persist.DeleteSavedMolecule(ctx, s.kv, s.logger, name); err != nil {
			http.Error(w, "cannot delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handlePanelRoutes handles the panel-collapse flag endpoints
func (s *Server) handlePanelRoutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, persist.LoadPanelFlags(ctx, s.kv, s.logger))
	case http.MethodPut:
		defer r.Body.Close()
		var flags map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&flags); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := persist.StorePanelFlags(ctx, s.kv, flags); err != nil {
			http.Error(w, "cannot store: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
