// Package store provides a small observable value container with atomic
// batched updates. Mutations made inside a batch become visible to reads
// immediately, but subscriber notification is deferred until the
// outermost batch closes, and at most one notification is delivered for
// the whole batch.
//
// The store is single-goroutine by design and performs no locking;
// callers that need cross-goroutine access must serialize externally.
package store

// Store holds a value of type T and notifies subscribers when it changes
type Store[T any] struct {
	value      T
	batchDepth int
	dirty      bool
	nextID     int
	listeners  []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// New creates a store holding the given initial value
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial}
}

// Get returns the current value. Inside a batch it reflects all
// mutations made so far.
func (s *Store[T]) Get() T {
	return s.value
}

// Set replaces the value. Outside a batch, subscribers are notified
// immediately; inside one, notification is deferred to the outermost
// batch close.
func (s *Store[T]) Set(v T) {
	s.value = v
	if s.batchDepth > 0 {
		s.dirty = true
		return
	}
	s.notify()
}

// Update applies fn to the current value and stores the result
func (s *Store[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Batch runs fn as one atomic update group. Batches nest; only the
// outermost close delivers a notification, and only if some Set
// happened within the group.
func (s *Store[T]) Batch(fn func()) {
	s.batchDepth++
	defer func() {
		s.batchDepth--
		if s.batchDepth == 0 && s.dirty {
			s.dirty = false
			s.notify()
		}
	}()
	fn()
}

// Subscribe registers a listener invoked with the value after each
// change. It returns an unsubscribe function.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[T]) notify() {
	if len(s.listeners) == 0 {
		return
	}
	// Snapshot the listener list so unsubscribing mid-notification is safe.
	current := make([]listener[T], len(s.listeners))
	copy(current, s.listeners)
	for _, l := range current {
		l.fn(s.value)
	}
}
