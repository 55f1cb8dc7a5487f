package reactive

import (
	"sync"
)

// Signal is a reactive value container.
// Callers read the current value with Get and register interest with
// Subscribe; every Set or Update that changes the value invokes the
// subscribed callbacks with the new value.
//
// Unlike render-tracked reactive systems, subscription here is always
// explicit: there is no implicit dependency collection. This keeps the
// observation model obvious for code that polls as well as code that
// subscribes.
type Signal[T any] struct {
	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to determine if the value changed.
	// If nil, every Set notifies.
	equal func(T, T) bool

	// subs are the callbacks subscribed to this signal, keyed by token.
	subs   map[uint64]func(T)
	subMu  sync.RWMutex
	nextID uint64
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// NewSignalEq creates a signal that suppresses notifications when the
// equality function reports the new value as unchanged.
func NewSignalEq[T any](initial T, equal func(T, T) bool) *Signal[T] {
	return &Signal[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the current value and notifies subscribers.
// If an equality function is configured and reports the values equal,
// subscribers are not notified.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.value, value) {
		s.mu.Unlock()
		return
	}
	s.value = value
	s.mu.Unlock()

	s.notify(value)
}

// Update applies fn to the current value and stores the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	if s.equal != nil && s.equal(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	s.mu.Unlock()

	s.notify(next)
}

// Subscribe registers a callback invoked with every new value.
// The returned function removes the subscription; calling it more than
// once is harmless.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]func(T))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// notify invokes all subscribers with the given value.
// Uses copy-before-notify to avoid holding locks during callbacks.
func (s *Signal[T]) notify(value T) {
	s.subMu.RLock()
	subs := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(value)
	}
}
