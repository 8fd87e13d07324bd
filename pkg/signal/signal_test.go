package signal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksNotifyFansOut(t *testing.T) {
	first := &CaptureHook{}
	second := &CaptureHook{}
	hooks := Hooks{first, second}

	if !hooks.Enabled() {
		t.Fatalf("expected hooks to report enabled")
	}
	err := hooks.Notify(context.Background(), Event{
		Verb:       "stack.container.replaced",
		ObjectType: "stack",
		ObjectID:   "machine_a",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Events) != 1 || len(second.Events) != 1 {
		t.Fatalf("expected both hooks to observe the event")
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	bang := errors.New("bang")
	hooks := Hooks{&CaptureHook{Err: boom}, &CaptureHook{}, &CaptureHook{Err: bang}}

	err := hooks.Notify(context.Background(), Event{
		Verb:       "stack.extruder.added",
		ObjectType: "stack",
		ObjectID:   "machine_a",
	})
	if !errors.Is(err, boom) || !errors.Is(err, bang) {
		t.Fatalf("expected both hook errors to surface, got %v", err)
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), Event{Verb: "orphaned"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected incomplete events to be dropped, got %d", len(capture.Events))
	}
}

func TestHooksNotifyTolerantOfNilMembers(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{nil, capture}

	if err := hooks.Notify(nil, Event{
		Verb:       "stack.deserialized",
		ObjectType: "stack",
		ObjectID:   "machine_a",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected the non-nil hook to be notified")
	}
}

func TestNormalizeEvent(t *testing.T) {
	metadata := map[string]any{"slot": "material"}
	normalized := NormalizeEvent(Event{
		Verb:       "  stack.container.replaced ",
		ObjectType: " stack",
		ObjectID:   "machine_a ",
		Metadata:   metadata,
	})

	if normalized.Verb != "stack.container.replaced" {
		t.Fatalf("expected the verb to be trimmed, got %q", normalized.Verb)
	}
	if normalized.ObjectType != "stack" || normalized.ObjectID != "machine_a" {
		t.Fatalf("expected identity fields to be trimmed")
	}
	if normalized.OccurredAt.IsZero() {
		t.Fatalf("expected a timestamp to be stamped")
	}

	metadata["slot"] = "variant"
	if normalized.Metadata["slot"] != "material" {
		t.Fatalf("expected the metadata to be cloned")
	}
}

func TestNormalizeEventKeepsTimestamp(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	normalized := NormalizeEvent(Event{Verb: "v", OccurredAt: when})
	if !normalized.OccurredAt.Equal(when) {
		t.Fatalf("expected the provided timestamp to survive, got %v", normalized.OccurredAt)
	}
}

func TestHookFuncAdapter(t *testing.T) {
	var seen []Event
	hook := HookFunc(func(_ context.Context, event Event) error {
		seen = append(seen, event)
		return nil
	})
	if err := hook.Notify(context.Background(), Event{Verb: "v"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected the function to be invoked")
	}

	var nilHook HookFunc
	if err := nilHook.Notify(context.Background(), Event{Verb: "v"}); err != nil {
		t.Fatalf("expected a nil HookFunc to be a no-op, got %v", err)
	}
}
