package server

import (
	"context"
	"testing"
	"time"
)

func TestEventDispatcherPublishesToSubscriber(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "user-1")
	defer cleanup()

	dispatcher.Publish(NoteEvent{
		UserID:    "user-1",
		EventType: EventNoteChanged,
		NoteIDs:   []string{"note-a", "note-b"},
		Timestamp: time.Now().UTC(),
	})

	select {
	case received := <-stream:
		if received.EventType != EventNoteChanged {
			t.Fatalf("expected event type %s, got %s", EventNoteChanged, received.EventType)
		}
		if len(received.NoteIDs) != 2 {
			t.Fatalf("expected 2 note ids, got %d", len(received.NoteIDs))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected note event within deadline")
	}
}

func TestEventDispatcherIsolatesUsers(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otherCtx, otherCancel := context.WithCancel(context.Background())
	defer otherCancel()

	userStream, cleanup := dispatcher.Subscribe(ctx, "user-2")
	defer cleanup()

	otherStream, otherCleanup := dispatcher.Subscribe(otherCtx, "user-3")
	defer otherCleanup()

	dispatcher.Publish(NoteEvent{
		UserID:    "user-3",
		EventType: EventNoteChanged,
		NoteIDs:   []string{"note-c"},
		Timestamp: time.Now().UTC(),
	})

	select {
	case <-userStream:
		t.Fatal("did not expect event for unrelated user")
	case <-time.After(200 * time.Millisecond):
	}

	select {
	case event := <-otherStream:
		if event.UserID != "user-3" {
			t.Fatalf("expected user-3, received %s", event.UserID)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event for subscribed user")
	}
}

func TestEventDispatcherIgnoresBlankEvents(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "user-4")
	defer cleanup()

	dispatcher.Publish(NoteEvent{UserID: "", EventType: EventNoteChanged})
	dispatcher.Publish(NoteEvent{UserID: "user-4", EventType: ""})

	select {
	case event := <-stream:
		t.Fatalf("expected no delivery, got %#v", event)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestEventDispatcherSubscribeWithoutUserReturnsClosedStream(t *testing.T) {
	dispatcher := NewEventDispatcher()

	stream, cleanup := dispatcher.Subscribe(context.Background(), "")
	defer cleanup()

	if _, open := <-stream; open {
		t.Fatal("expected closed stream for empty user id")
	}
}
