package watch

import (
	"sync"
	"time"
)

// EventKind classifies a filesystem change observed by the watcher.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventWrite  EventKind = "write"
	EventRemove EventKind = "remove"
	EventRename EventKind = "rename"
)

// Event is one filesystem change recorded for status introspection.
type Event struct {
	Path string
	Kind EventKind
	At   time.Time
}

// EventLog is a bounded, ring-buffer in-memory log of recent watch events,
// grounded on spec.md §4.8's rolling event log bounded to the last N
// entries.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewEventLog builds an EventLog capped at limit entries. limit <= 0 falls
// back to a sane default.
func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = 500
	}
	return &EventLog{limit: limit}
}

// Record appends e, dropping the oldest entry once the log is at capacity.
func (l *EventLog) Record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
}

// Recent returns a snapshot of the log, oldest first.
func (l *EventLog) Recent() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
