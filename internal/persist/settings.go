package persist

import (
	"context"
	"encoding/json"
	"time"
)

const (
	bucketSavedMolecules = "saved_molecules"
	bucketPanelFlags     = "panel_flags"
)

// SavedMolecule is one entry of the saved-molecule index.
type SavedMolecule struct {
	Name      string          `json:"name"`
	AtomCount int             `json:"atom_count"`
	SavedAt   int64           `json:"saved_at"`
	Data      json.RawMessage `json:"data"`
}

// logger is the subset of scene.Logger this package needs.
type logger interface {
	Warnf(format string, v ...any)
}

// LoadSavedMolecules reads the saved-molecule index. Missing or corrupted
// payloads return an empty index; they never fail the caller.
func LoadSavedMolecules(ctx context.Context, kv KV, log logger) []SavedMolecule {
	payload, found, err := kv.Get(ctx, bucketSavedMolecules)
	if err != nil || !found {
		if err != nil && log != nil {
			log.Warnf("saved-molecule index unreadable, using empty index: %v", err)
		}
		return nil
	}
	var index []SavedMolecule
	if err := json.Unmarshal(payload, &index); err != nil {
		if log != nil {
			log.Warnf("saved-molecule index corrupted, using empty index: %v", err)
		}
		return nil
	}
	return index
}

// StoreSavedMolecule appends (or replaces, by name) an entry in the index.
func StoreSavedMolecule(ctx context.Context, kv KV, log logger, entry SavedMolecule) error {
	if entry.SavedAt == 0 {
		entry.SavedAt = time.Now().Unix()
	}
	index := LoadSavedMolecules(ctx, kv, log)
	replaced := false
	for i := range index {
		if index[i].Name == entry.Name {
			index[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, entry)
	}
	payload, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return kv.Put(ctx, bucketSavedMolecules, payload)
}

// DeleteSavedMolecule removes an entry by name. Unknown names are a no-op.
func DeleteSavedMolecule(ctx context.Context, kv KV, log logger, name string) error {
	index := LoadSavedMolecules(ctx, kv, log)
	kept := index[:0:0]
	for _, e := range index {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(index) {
		return nil
	}
	payload, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return kv.Put(ctx, bucketSavedMolecules, payload)
}

// LoadPanelFlags reads the per-panel collapsed/expanded flags. Missing or
// corrupted payloads return an empty map (all panels expanded).
func LoadPanelFlags(ctx context.Context, kv KV, log logger) map[string]bool {
	payload, found, err := kv.Get(ctx, bucketPanelFlags)
	if err != nil || !found {
		if err != nil && log != nil {
			log.Warnf("panel flags unreadable, using defaults: %v", err)
		}
		return map[string]bool{}
	}
	var flags map[string]bool
	if err := json.Unmarshal(payload, &flags); err != nil {
		if log != nil {
			log.Warnf("panel flags corrupted, using defaults: %v", err)
		}
		return map[string]bool{}
	}
	if flags == nil {
		flags = map[string]bool{}
	}
	return flags
}

// StorePanelFlags writes the per-panel collapsed/expanded flags.
func StorePanelFlags(ctx context.Context, kv KV, flags map[string]bool) error {
	payload, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	return kv.Put(ctx, bucketPanelFlags, payload)
}
