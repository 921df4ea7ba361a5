package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// EventKind names the mutation a SceneEvent reports.
type EventKind string

const (
	EventStructureLoaded   EventKind = "structure_loaded"
	EventStructureRemoved  EventKind = "structure_removed"
	EventSettingsChanged   EventKind = "settings_changed"
	EventActiveChanged     EventKind = "active_changed"
	EventLayoutChanged     EventKind = "layout_changed"
	EventSelectionChanged  EventKind = "selection_changed"
	EventMeasurementAdded  EventKind = "measurement_added"
	EventMeasurementsClear EventKind = "measurements_cleared"
	EventLabelAdded        EventKind = "label_added"
	EventLabelRemoved      EventKind = "label_removed"
	EventBondsInferred     EventKind = "bonds_inferred"
	EventUndo              EventKind = "undo"
	EventRedo              EventKind = "redo"
	EventSceneReset        EventKind = "scene_reset"
)

// SceneEvent is emitted after every committed store mutation so subscribed
// viewers can re-read the selectors they depend on.
type SceneEvent struct {
	SceneID        string      `json:"scene_id,omitempty"`
	Kind           EventKind   `json:"kind"`
	StructureID    StructureID `json:"structure_id,omitempty"`
	StructureCount int         `json:"structure_count"`
	CanUndo        bool        `json:"can_undo"`
	CanRedo        bool        `json:"can_redo"`
	Timestamp      int64       `json:"timestamp"`
}

// JSON returns the event as JSON bytes.
func (e SceneEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier is the interface that all event channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "websocket", "log")
	Type() string

	// Notify sends a scene event. Returns an error if delivery fails.
	// The context can be used for cancellation and timeout.
	Notify(ctx context.Context, event SceneEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

// eventJob represents a job to be processed by the event queue
type eventJob struct {
	Event SceneEvent
}

// EventHub manages all notifiers and fans scene events out to them
// asynchronously, with retry and backoff per notifier.
type EventHub struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan eventJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
}

// NewEventHub creates a new event hub with one delivery worker.
func NewEventHub() *EventHub {
	return NewEventHubWithLogger(NewNoOpLogger())
}

// NewEventHubWithLogger creates a new event hub with the given logger.
func NewEventHubWithLogger(logger Logger) *EventHub {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	hub := &EventHub{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan eventJob, 1024),
		logger:    logger,
	}
	hub.startWorkers(1)
	return hub
}

// RegisterNotifier registers a notifier with the hub
func (h *EventHub) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	h.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier removes a notifier from the hub
func (h *EventHub) UnregisterNotifier(id string) error {
	h.mu.Lock()
	notifier, exists := h.notifiers[id]
	h.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}

	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}

	h.mu.Lock()
	delete(h.notifiers, id)
	h.mu.Unlock()

	return nil
}

// ListNotifiers returns a list of all registered notifier IDs
func (h *EventHub) ListNotifiers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.notifiers))
	for id := range h.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Publish enqueues an event for asynchronous delivery to every registered
// notifier. Non-blocking: events are dropped with a warning if the queue is
// full, never back-pressuring the store.
func (h *EventHub) Publish(event SceneEvent) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()

	if closed {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	select {
	case h.jobs <- eventJob{Event: event}:
	default:
		h.logger.Warnf("event queue full, dropping event: kind=%s", event.Kind)
	}
}

// startWorkers starts n worker goroutines to process event jobs
func (h *EventHub) startWorkers(n int) {
	for i := 0; i < n; i++ {
		h.wg.Add(1)
		go h.worker()
	}
}

// worker processes event jobs from the queue
func (h *EventHub) worker() {
	defer h.wg.Done()
	for job := range h.jobs {
		h.dispatchJob(job)
	}
}

// dispatchJob delivers one event to all registered notifiers
func (h *EventHub) dispatchJob(job eventJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	h.mu.RLock()
	ids := make([]string, 0, len(h.notifiers))
	for id := range h.notifiers {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.notifyWithRetry(ctx, id, job.Event)
	}
}

// notifyWithRetry attempts delivery with exponential backoff
func (h *EventHub) notifyWithRetry(ctx context.Context, notifierID string, event SceneEvent) {
	h.mu.RLock()
	notifier, ok := h.notifiers[notifierID]
	h.mu.RUnlock()

	if !ok {
		// Unregistered between dispatch and delivery, nothing to do.
		return
	}

	const maxRetries = 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}

		h.logger.Warnf("event delivery failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)

		if attempt == maxRetries {
			h.logger.Errorf("event delivery failed after %d attempts: notifier=%s", maxRetries+1, notifierID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close shuts down the delivery workers and closes all registered notifiers.
func (h *EventHub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.jobs)
	h.mu.Unlock()

	h.wg.Wait()

	h.mu.Lock()
	var errs []error
	for id, notifier := range h.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	h.notifiers = make(map[string]Notifier)
	h.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}

	return nil
}
