package scene

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingNotifier captures delivered events; the first failCount deliveries
// return an error to exercise the retry path.
type recordingNotifier struct {
	mu        sync.Mutex
	id        string
	events    []SceneEvent
	failCount int
	closed    bool
}

func (n *recordingNotifier) ID() string   { return n.id }
func (n *recordingNotifier) Type() string { return "recording" }

func (n *recordingNotifier) Notify(ctx context.Context, event SceneEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failCount > 0 {
		n.failCount--
		return errors.New("transient delivery failure")
	}
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func (n *recordingNotifier) delivered() []SceneEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]SceneEvent, len(n.events))
	copy(out, n.events)
	return out
}

func TestEventHubRegistration(t *testing.T) {
	hub := NewEventHub()
	defer hub.Close()

	if err := hub.RegisterNotifier(nil); err == nil {
		t.Error("Expected error registering nil notifier")
	}
	if err := hub.RegisterNotifier(&recordingNotifier{id: ""}); err == nil {
		t.Error("Expected error registering empty-id notifier")
	}

	n := &recordingNotifier{id: "rec"}
	if err := hub.RegisterNotifier(n); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}
	if err := hub.RegisterNotifier(&recordingNotifier{id: "rec"}); err == nil {
		t.Error("Expected error on duplicate id")
	}

	ids := hub.ListNotifiers()
	if len(ids) != 1 || ids[0] != "rec" {
		t.Errorf("Expected [rec], got %v", ids)
	}

	if err := hub.UnregisterNotifier("missing"); err == nil {
		t.Error("Expected error unregistering unknown id")
	}
	if err := hub.UnregisterNotifier("rec"); err != nil {
		t.Fatalf("UnregisterNotifier failed: %v", err)
	}
	if !n.closed {
		t.Error("Expected notifier closed on unregister")
	}
	if len(hub.ListNotifiers()) != 0 {
		t.Error("Expected no notifiers left")
	}
}

func TestEventHubDelivery(t *testing.T) {
	hub := NewEventHub()
	defer hub.Close()

	n := &recordingNotifier{id: "rec"}
	hub.RegisterNotifier(n)

	hub.Publish(SceneEvent{SceneID: "s1", Kind: EventStructureLoaded, StructureCount: 1})

	waitFor(t, "event delivery", func() bool {
		return len(n.delivered()) == 1
	})
	got := n.delivered()[0]
	if got.Kind != EventStructureLoaded || got.SceneID != "s1" {
		t.Errorf("Unexpected event delivered: %+v", got)
	}
	if got.Timestamp == 0 {
		t.Error("Expected timestamp stamped at publish")
	}
}

func TestEventHubRetriesFailedDelivery(t *testing.T) {
	hub := NewEventHub()
	defer hub.Close()

	n := &recordingNotifier{id: "flaky", failCount: 2}
	hub.RegisterNotifier(n)

	hub.Publish(SceneEvent{Kind: EventSelectionChanged})

	// Two failures, then the third attempt lands within the backoff window.
	waitFor(t, "retried delivery", func() bool {
		return len(n.delivered()) == 1
	})
}

func TestEventHubPublishAfterClose(t *testing.T) {
	hub := NewEventHub()
	n := &recordingNotifier{id: "rec"}
	hub.RegisterNotifier(n)

	if err := hub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !n.closed {
		t.Error("Expected registered notifier closed with the hub")
	}

	// Must not panic or block.
	hub.Publish(SceneEvent{Kind: EventUndo})

	if err := hub.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
}

func TestStoreEmitsEvents(t *testing.T) {
	hub := NewEventHub()
	defer hub.Close()
	n := &recordingNotifier{id: "rec"}
	hub.RegisterNotifier(n)

	s := NewStore(DefaultPolicy())
	s.SetSceneID("main")
	s.SetEventHub(hub)

	id, err := s.LoadStructure(waterMolecule(), LoadAdd)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	s.SetStructureRepresentation(id, RepStick)
	s.Undo()

	waitFor(t, "store event stream", func() bool {
		return len(n.delivered()) == 3
	})

	events := n.delivered()
	wantKinds := []EventKind{EventStructureLoaded, EventSettingsChanged, EventUndo}
	for i, want := range wantKinds {
		if events[i].Kind != want {
			t.Errorf("Event %d: expected %s, got %s", i, want, events[i].Kind)
		}
		if events[i].SceneID != "main" {
			t.Errorf("Event %d: expected scene id stamped, got %q", i, events[i].SceneID)
		}
	}
	if !events[1].CanUndo {
		t.Error("Expected CanUndo after a settings change")
	}
	if !events[2].CanRedo {
		t.Error("Expected CanRedo after an undo")
	}
}

func TestSceneEventJSON(t *testing.T) {
	e := SceneEvent{SceneID: "s", Kind: EventRedo, StructureCount: 2, CanUndo: true, Timestamp: 42}
	data, err := e.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Expected non-empty JSON")
	}
}
