// Package events provides the observer registry used between a table data
// source and its consumers. Handlers are registered per event name and must
// be released explicitly with Off; nothing is collected implicitly.
package events

import (
	"slices"
	"sync"
)

// Name identifies an event kind emitted by a data source.
type Name string

// Events emitted by telemetry table sources.
const (
	HeadersChanged Name = "headersChanged"
	Added          Name = "added"
	Removed        Name = "removed"
	Sorted         Name = "sorted"
	Filtered       Name = "filtered"
)

// Handler receives the name of the event that fired.
type Handler func(Name)

// Subscription is the handle returned by On. It identifies one registered
// handler and is the only way to remove it.
type Subscription struct {
	name Name
	id   uint64
}

// Name returns the event the subscription listens to.
func (s Subscription) Name() Name { return s.name }

// Valid reports whether s was produced by On.
func (s Subscription) Valid() bool { return s.id != 0 }

type entry struct {
	id uint64
	fn Handler
}

// Emitter is a registry of handlers keyed by event name. The zero value is
// ready to use. It is safe for concurrent use; handlers are invoked without
// the lock held so they may call On, Off or read the emitting source.
type Emitter struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[Name][]entry
}

// On registers fn for events named name and returns its subscription.
func (e *Emitter) On(name Name, fn Handler) Subscription {
	if fn == nil {
		return Subscription{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[Name][]entry)
	}
	e.nextID++
	e.handlers[name] = append(e.handlers[name], entry{id: e.nextID, fn: fn})
	return Subscription{name: name, id: e.nextID}
}

// Off removes the handler behind sub. It reports whether a handler was
// removed; removing twice is a no-op.
func (e *Emitter) Off(sub Subscription) bool {
	if !sub.Valid() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.handlers[sub.name]
	for i, h := range list {
		if h.id != sub.id {
			continue
		}
		// Copy rather than shift in place: Emit may be iterating a snapshot
		// of the old slice.
		next := make([]entry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(e.handlers, sub.name)
		} else {
			e.handlers[sub.name] = next
		}
		return true
	}
	return false
}

// Emit calls every handler registered for name in registration order.
func (e *Emitter) Emit(name Name) {
	e.mu.Lock()
	list := e.handlers[name]
	e.mu.Unlock()

	for _, h := range list {
		h.fn(name)
	}
}

// Count returns the number of handlers registered for name.
func (e *Emitter) Count(name Name) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[name])
}

// Names returns the event names that currently have handlers, sorted.
func (e *Emitter) Names() []Name {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]Name, 0, len(e.handlers))
	for n := range e.handlers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
