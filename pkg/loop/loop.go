package loop

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the dispatch queue capacity used by New.
const DefaultQueueSize = 256

// Loop is a serialized event queue. All functions passed to Dispatch run
// one at a time on a single goroutine, in submission order. Delays are
// expressed with After, which fires back onto the same queue, so code
// running on the loop never observes concurrent mutation.
//
// A closed loop silently drops dispatches. This is the guard against
// late timer callbacks touching state that no longer has an owner.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	wg         sync.WaitGroup
}

// New creates a loop and starts its goroutine.
func New() *Loop {
	return NewSize(DefaultQueueSize)
}

// NewSize creates a loop with the given queue capacity.
func NewSize(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	l := &Loop{
		dispatchCh: make(chan func(), queueSize),
		done:       make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.dispatchCh:
			fn()
		case <-l.done:
			// Drain anything already queued so Close doesn't lose
			// work that was accepted before shutdown.
			for {
				select {
				case fn := <-l.dispatchCh:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Dispatch queues fn to run on the loop. Returns false if the loop is
// closed, in which case fn is dropped.
func (l *Loop) Dispatch(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.dispatchCh <- fn:
		return true
	case <-l.done:
		return false
	}
}

// After schedules fn to run on the loop after d elapses.
// The returned timer can be stopped; stopping after the deadline is
// still effective as long as fn has not started running.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		l.Dispatch(func() {
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

// Close shuts the loop down. Queued work runs to completion; later
// dispatches are dropped. Close blocks until the loop goroutine exits
// and is safe to call more than once.
func (l *Loop) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	close(l.done)
	l.wg.Wait()
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	return l.closed.Load()
}

// Timer is a handle to a callback scheduled with After.
type Timer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

// Stop cancels the timer. The callback will not run, even if the
// underlying timer already fired and the callback is queued.
func (t *Timer) Stop() {
	t.stopped.Store(true)
	t.timer.Stop()
}
