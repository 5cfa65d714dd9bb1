// Package client is the browser-session side of the realtime layer: it
// subscribes to channels, binds event handlers and keeps the local state
// (who is online, the open thread, unread counts) in observable stores.
package client

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of an event
type Handler func(data json.RawMessage)

// BindingID identifies one Bind call so it can be undone
type BindingID uint64

// Channel is a subscribed channel handle
type Channel interface {
	Name() string
	Bind(event string, h Handler) BindingID
	Unbind(event string, id BindingID)
}

// Subscriber opens and closes channel subscriptions
type Subscriber interface {
	Subscribe(channel string) (Channel, error)
	Unsubscribe(channel string)
}

// maxPending caps the events held for an event name nobody has bound yet
const maxPending = 16

// bindings is the event to handler table shared by channel implementations.
// Events that arrive before any handler is bound for them are held and
// handed to the first handler bound, so a reply racing the Bind call right
// after Subscribe is not lost.
type bindings struct {
	name     string
	mu       sync.Mutex
	next     BindingID
	handlers map[string]map[BindingID]Handler
	pending  map[string][]json.RawMessage
}

func newBindings(name string) *bindings {
	return &bindings{
		name:     name,
		handlers: map[string]map[BindingID]Handler{},
		pending:  map[string][]json.RawMessage{},
	}
}

func (b *bindings) Name() string {
	return b.name
}

func (b *bindings) Bind(event string, h Handler) BindingID {
	b.mu.Lock()
	b.next++
	id := b.next
	if b.handlers[event] == nil {
		b.handlers[event] = map[BindingID]Handler{}
	}
	b.handlers[event][id] = h
	held := b.pending[event]
	delete(b.pending, event)
	b.mu.Unlock()

	for _, data := range held {
		h(data)
	}
	return id
}

func (b *bindings) Unbind(event string, id BindingID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[event], id)
}

// dispatch runs every handler bound to event
func (b *bindings) dispatch(event string, data json.RawMessage) {
	b.mu.Lock()
	if len(b.handlers[event]) == 0 {
		if len(b.pending[event]) < maxPending {
			b.pending[event] = append(b.pending[event], data)
		}
		b.mu.Unlock()
		return
	}
	hs := make([]Handler, 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(data)
	}
}

func (b *bindings) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, hs := range b.handlers {
		n += len(hs)
	}
	return n
}
