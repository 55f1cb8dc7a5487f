package store

import (
	"sync"
	"sync/atomic"

	"github.com/formlab-dev/formlab/pkg/loop"
	"github.com/formlab-dev/formlab/pkg/reactive"
)

// Store is the explicit application state handle. It owns the event
// loop and the signals created through Key accessors, and its
// lifecycle brackets theirs: New starts the loop, Close stops it and
// drops the state.
//
// The store is passed down to whatever needs it. There is no implicit
// module-level singleton to reach for.
type Store struct {
	lp      *loop.Loop
	signals sync.Map // uint64 -> *reactive.Signal[T]
	closed  atomic.Bool
}

// New creates a store with a running loop.
func New() *Store {
	return &Store{lp: loop.New()}
}

// Loop returns the store's event loop.
func (s *Store) Loop() *loop.Loop {
	return s.lp
}

// Close stops the loop and discards all state. Safe to call more than
// once.
func (s *Store) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.lp.Close()
	s.signals.Range(func(k, _ any) bool {
		s.signals.Delete(k)
		return true
	})
}

var keyCounter atomic.Uint64

// Key is a typed slot definition. Declare keys once (typically as
// package-level vars in the application) and read or write them
// through any store; each store materializes its own signal for the
// key on first use.
type Key[T any] struct {
	id      uint64
	initial T
}

// NewKey declares a slot with its initial value.
func NewKey[T any](initial T) Key[T] {
	return Key[T]{id: keyCounter.Add(1), initial: initial}
}

// Signal returns the store's signal for this key, creating it on first
// use.
func (k Key[T]) Signal(s *Store) *reactive.Signal[T] {
	if v, ok := s.signals.Load(k.id); ok {
		return v.(*reactive.Signal[T])
	}
	sig := reactive.NewSignal(k.initial)
	if actual, loaded := s.signals.LoadOrStore(k.id, sig); loaded {
		return actual.(*reactive.Signal[T])
	}
	return sig
}

// Get returns the key's current value in the given store.
func (k Key[T]) Get(s *Store) T {
	return k.Signal(s).Get()
}

// Set updates the key's value in the given store.
func (k Key[T]) Set(s *Store, value T) {
	k.Signal(s).Set(value)
}

// Update applies fn to the key's value in the given store.
func (k Key[T]) Update(s *Store, fn func(T) T) {
	k.Signal(s).Update(fn)
}
