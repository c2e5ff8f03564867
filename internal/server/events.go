package server

import (
	"context"
	"sync"
	"time"
)

const (
	// EventNoteChanged is published after a sync batch persists note changes.
	EventNoteChanged  = "note-change"
	eventHeartbeat    = "heartbeat"
	eventSourceScribe = "scribe-backend"
)

// NoteEvent notifies subscribed devices that notes changed for a user.
type NoteEvent struct {
	UserID    string
	EventType string
	NoteIDs   []string
	Timestamp time.Time
}

// EventDispatcher fans note events out to per-user subscriber streams.
// Slow subscribers are skipped rather than blocking the publisher.
type EventDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*eventSubscriber
	nextID      int64
	bufferSize  int
}

type eventSubscriber struct {
	id     int64
	stream chan NoteEvent
}

// NewEventDispatcher constructs an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		subscribers: make(map[string]map[int64]*eventSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream for the user's events. The stream is detached
// when the context is cancelled or the returned cleanup runs.
func (d *EventDispatcher) Subscribe(ctx context.Context, userID string) (<-chan NoteEvent, func()) {
	if userID == "" {
		ch := make(chan NoteEvent)
		close(ch)
		return ch, func() {}
	}
	subscriber := &eventSubscriber{
		id:     d.nextSequence(),
		stream: make(chan NoteEvent, d.bufferSize),
	}
	d.registerSubscriber(userID, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(userID, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the event to every stream subscribed to its user.
func (d *EventDispatcher) Publish(event NoteEvent) {
	if event.UserID == "" || event.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[event.UserID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	targets := make([]*eventSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		targets = append(targets, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range targets {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

func (d *EventDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *EventDispatcher) registerSubscriber(userID string, subscriber *eventSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[userID]; !ok {
		d.subscribers[userID] = make(map[int64]*eventSubscriber)
	}
	d.subscribers[userID][subscriber.id] = subscriber
}

func (d *EventDispatcher) unregisterSubscriber(userID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[userID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, userID)
		}
	}
	d.mu.Unlock()
}
