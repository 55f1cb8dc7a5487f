package optimistic

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formlab-dev/formlab/pkg/loop"
	"github.com/formlab-dev/formlab/pkg/reactive"
)

// DefaultRevertWindow is how long a provisional entry may stay
// unconfirmed before the list reverts to its pre-optimistic base.
const DefaultRevertWindow = 2 * time.Second

// TokenPrefix marks provisional identifiers so they are recognizable
// in logs and payloads.
const TokenPrefix = "tmp-"

// Append returns a copy of base with item appended. The input slice is
// never mutated or aliased.
func Append[T any](base []T, item T) []T {
	out := make([]T, len(base)+1)
	copy(out, base)
	out[len(base)] = item
	return out
}

// Entry wraps a list value with its provisional token. Confirmed
// entries carry an empty token.
type Entry[T any] struct {
	Token string `json:"token,omitempty"`
	Value T      `json:"value"`
}

// Provisional reports whether the entry is still awaiting confirmation.
func (e Entry[T]) Provisional() bool {
	return e.Token != ""
}

// IsToken reports whether id looks like a provisional token.
func IsToken(id string) bool {
	return strings.HasPrefix(id, TokenPrefix)
}

// List holds a slice with optimistic append semantics: Apply shows the
// tentative item immediately, Confirm swaps it for the real result,
// and an unconfirmed item drags the whole list back to its saved base
// when the revert window expires.
//
// The revert is deliberately coarse. It does not track which
// provisional entry timed out; it restores the entire pre-optimistic
// base regardless of how many provisional entries are pending. Callers
// must not rely on item-level rollback.
type List[T any] struct {
	lp      *loop.Loop
	window  time.Duration
	entries *reactive.Signal[[]Entry[T]]

	onApply   func()
	onConfirm func()
	onRevert  func()

	mu     sync.Mutex
	base   []Entry[T] // saved when the first provisional entry arrives
	saved  bool
	timers map[string]*loop.Timer
}

// ListOption configures a List.
type ListOption func(*listConfig)

type listConfig struct {
	window    time.Duration
	onApply   func()
	onConfirm func()
	onRevert  func()
}

// WithRevertWindow overrides the revert window.
func WithRevertWindow(d time.Duration) ListOption {
	return func(c *listConfig) { c.window = d }
}

// OnApply registers a callback for each optimistic apply.
func OnApply(fn func()) ListOption {
	return func(c *listConfig) { c.onApply = fn }
}

// OnConfirm registers a callback for each confirmation.
func OnConfirm(fn func()) ListOption {
	return func(c *listConfig) { c.onConfirm = fn }
}

// OnRevert registers a callback for each revert.
func OnRevert(fn func()) ListOption {
	return func(c *listConfig) { c.onRevert = fn }
}

// NewList creates a List bound to the given loop.
func NewList[T any](lp *loop.Loop, opts ...ListOption) *List[T] {
	cfg := listConfig{window: DefaultRevertWindow}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &List[T]{
		lp:        lp,
		window:    cfg.window,
		entries:   reactive.NewSignal([]Entry[T]{}),
		onApply:   cfg.onApply,
		onConfirm: cfg.onConfirm,
		onRevert:  cfg.onRevert,
		timers:    make(map[string]*loop.Timer),
	}
}

// Seed replaces the list with confirmed entries. Any provisional state
// is discarded.
func (l *List[T]) Seed(items []T) {
	l.mu.Lock()
	l.stopTimersLocked()
	l.base = nil
	l.saved = false
	entries := make([]Entry[T], len(items))
	for i, item := range items {
		entries[i] = Entry[T]{Value: item}
	}
	l.mu.Unlock()

	l.entries.Set(entries)
}

// Entries returns the current entries, provisional ones included.
func (l *List[T]) Entries() []Entry[T] {
	return l.entries.Get()
}

// Values returns the current values without their tokens.
func (l *List[T]) Values() []T {
	entries := l.entries.Get()
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// Subscribe registers a callback invoked with the entries after every
// change. The returned function removes the subscription.
func (l *List[T]) Subscribe(fn func([]Entry[T])) func() {
	return l.entries.Subscribe(fn)
}

// Apply appends item as a provisional entry and returns its token.
// The updated list is visible immediately; the revert timer starts now.
func (l *List[T]) Apply(item T) string {
	token := TokenPrefix + uuid.NewString()

	l.mu.Lock()
	if !l.saved {
		l.base = l.entries.Get()
		l.saved = true
	}
	l.timers[token] = l.lp.After(l.window, func() { l.Revert() })
	l.mu.Unlock()

	l.entries.Update(func(entries []Entry[T]) []Entry[T] {
		return Append(entries, Entry[T]{Token: token, Value: item})
	})

	if l.onApply != nil {
		l.onApply()
	}
	return token
}

// Confirm replaces the provisional entry identified by token with the
// actual value and cancels its revert timer. Returns false if the
// token is unknown (already reverted or confirmed).
func (l *List[T]) Confirm(token string, actual T) bool {
	l.mu.Lock()
	timer, ok := l.timers[token]
	if !ok {
		l.mu.Unlock()
		return false
	}
	timer.Stop()
	delete(l.timers, token)
	if len(l.timers) == 0 {
		l.base = nil
		l.saved = false
	}
	l.mu.Unlock()

	l.entries.Update(func(entries []Entry[T]) []Entry[T] {
		out := make([]Entry[T], len(entries))
		copy(out, entries)
		for i, e := range out {
			if e.Token == token {
				out[i] = Entry[T]{Value: actual}
				break
			}
		}
		return out
	})

	if l.onConfirm != nil {
		l.onConfirm()
	}
	return true
}

// Revert discards all optimism: the list returns to the base saved
// before the first unconfirmed Apply, and every pending timer is
// cancelled.
func (l *List[T]) Revert() {
	l.mu.Lock()
	if !l.saved {
		l.mu.Unlock()
		return
	}
	base := l.base
	l.stopTimersLocked()
	l.base = nil
	l.saved = false
	l.mu.Unlock()

	l.entries.Set(base)

	if l.onRevert != nil {
		l.onRevert()
	}
}

// PendingCount returns the number of unconfirmed provisional entries.
func (l *List[T]) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

func (l *List[T]) stopTimersLocked() {
	for token, timer := range l.timers {
		timer.Stop()
		delete(l.timers, token)
	}
}
