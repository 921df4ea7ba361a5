package scene

import (
	"fmt"
	"sync"
)

// SceneID is a unique identifier for a scene (one store per scene).
type SceneID string

// SceneManager manages multiple scenes, each with its own store, isolated
// from the others but sharing one event hub and bond inferencer.
type SceneManager struct {
	mu         sync.RWMutex
	scenes     map[SceneID]*Store
	policy     Policy
	logger     Logger
	hub        *EventHub
	inferencer BondInferencer
}

// NewSceneManager creates a new scene manager with the given policy.
func NewSceneManager(policy Policy) *SceneManager {
	return NewSceneManagerWithLogger(policy, NewNoOpLogger())
}

// NewSceneManagerWithLogger creates a new scene manager with the given logger.
func NewSceneManagerWithLogger(policy Policy, logger Logger) *SceneManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &SceneManager{
		scenes: make(map[SceneID]*Store),
		policy: policy,
		logger: logger,
	}
}

// SetEventHub wires all future scenes (and their stores) to the given hub.
func (sm *SceneManager) SetEventHub(hub *EventHub) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.hub = hub
}

// SetBondInferencer wires all future scenes to the given bond inferencer.
func (sm *SceneManager) SetBondInferencer(bi BondInferencer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.inferencer = bi
}

// CreateScene creates a new scene with the given ID.
// Returns an error if a scene with that ID already exists.
func (sm *SceneManager) CreateScene(id SceneID) (*Store, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.scenes[id]; exists {
		return nil, fmt.Errorf("scene with id %s already exists", id)
	}

	store := NewStoreWithLogger(sm.policy, sm.logger)
	store.SetSceneID(string(id))
	if sm.hub != nil {
		store.SetEventHub(sm.hub)
	}
	if sm.inferencer != nil {
		store.SetBondInferencer(sm.inferencer)
	}
	sm.scenes[id] = store
	return store, nil
}

// GetScene retrieves a scene's store by ID.
// Returns the store and a boolean indicating if it was found.
func (sm *SceneManager) GetScene(id SceneID) (*Store, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	store, exists := sm.scenes[id]
	return store, exists
}

// GetOrCreateScene retrieves a scene, creating it when missing.
func (sm *SceneManager) GetOrCreateScene(id SceneID) *Store {
	if store, ok := sm.GetScene(id); ok {
		return store
	}
	store, err := sm.CreateScene(id)
	if err != nil {
		// Lost a create race; the scene exists now.
		store, _ = sm.GetScene(id)
	}
	return store
}

// DeleteScene removes a scene by ID.
// Returns an error if the scene doesn't exist.
func (sm *SceneManager) DeleteScene(id SceneID) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	store, exists := sm.scenes[id]
	if !exists {
		return fmt.Errorf("scene with id %s does not exist", id)
	}

	store.Reset()
	delete(sm.scenes, id)
	return nil
}

// ListScenes returns a list of all scene IDs.
func (sm *SceneManager) ListScenes() []SceneID {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]SceneID, 0, len(sm.scenes))
	for id := range sm.scenes {
		ids = append(ids, id)
	}
	return ids
}
