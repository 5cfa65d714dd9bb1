package client

import "sync"

// Store is an observable value. Every change goes through Update or Set and
// every subscriber sees the new value afterwards, in the order the changes
// were made. Listeners must not call Update or Set on the same store.
type Store[T any] struct {
	// notifyMu spans compute and notify so listeners see changes in order
	notifyMu sync.Mutex

	mu        sync.Mutex
	value     T
	nextID    uint64
	listeners map[uint64]func(T)
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, listeners: map[uint64]func(T){}}
}

func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Update replaces the value with fn(previous). fn must not modify its argument.
func (s *Store[T]) Update(fn func(prev T) T) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.value = fn(s.value)
	next := s.value
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}

func (s *Store[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Subscribe registers fn and returns the function that removes it
func (s *Store[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// snapshot copies the listeners so they run without the lock held
func (s *Store[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}
