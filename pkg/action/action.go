package action

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/formlab-dev/formlab/pkg/loop"
	"github.com/formlab-dev/formlab/pkg/reactive"
)

// State is the position of an action in its lifecycle.
type State int

const (
	// StateIdle is the initial state before any Submit call.
	StateIdle State = iota

	// StatePending indicates a submission is in flight.
	StatePending

	// StateResolved indicates the last submission succeeded.
	StateResolved

	// StateRejected indicates the last submission failed.
	StateRejected
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Policy defines how an Action handles a Submit while another
// submission is still pending.
type Policy int

const (
	// PolicySupersedePending starts the new submission and discards
	// the pending one's eventual result. This is the default: the
	// state the caller observes always belongs to the last dispatch.
	PolicySupersedePending Policy = iota

	// PolicyDropWhilePending ignores Submit calls while pending.
	PolicyDropWhilePending
)

// Observer receives submission lifecycle notifications. It exists so
// metrics stay out of the state machine; see the metrics package for
// the Prometheus implementation.
//
// Every started submission is finished exactly once. A superseded or
// undeliverable submission finishes with a context cancellation error.
type Observer interface {
	SubmissionStarted(action string)
	SubmissionFinished(action string, elapsed time.Duration, err error)
}

// Snapshot is the caller-visible action state. After a resolution
// exactly one of Data/Err is meaningful: HasData marks a resolved
// result, Err a rejection. A rejection never clears data from an
// earlier resolution.
type Snapshot[R any] struct {
	State      State
	Data       R
	HasData    bool
	Err        error
	Pending    bool
	LastAction string
}

// Action drives a named asynchronous operation through
// idle → pending → resolved|rejected. The work function runs off the
// event loop; every state transition is applied on the loop, so
// observers never see torn updates.
//
// No retries happen internally. Resubmission is the caller's call.
type Action[A any, R any] struct {
	name string
	do   func(ctx context.Context, arg A) (R, error)
	lp   *loop.Loop

	state     *reactive.Signal[State]
	result    *reactive.Signal[R]
	hasResult *reactive.Signal[bool]
	err       *reactive.Signal[error]

	policy    Policy
	onStart   func()
	onResolve func(R)
	onReject  func(error)
	observer  Observer

	// Cancellation and staleness tracking for the current submission.
	cancelMu   sync.Mutex
	cancel     context.CancelFunc
	currentSeq uint64
	seq        atomic.Uint64
}

// New creates an Action bound to the given loop.
//
// Example:
//
//	save := action.New(lp, "updateProfile",
//	    func(ctx context.Context, fields map[string]any) (simulate.Result, error) {
//	        return backend.Call(ctx, "updateProfile", fields)
//	    },
//	    action.OnReject(showToast),
//	)
func New[A any, R any](
	lp *loop.Loop,
	name string,
	do func(ctx context.Context, arg A) (R, error),
	opts ...Option,
) *Action[A, R] {
	a := &Action[A, R]{
		name:      name,
		do:        do,
		lp:        lp,
		state:     reactive.NewSignal(StateIdle),
		result:    reactive.NewSignal(*new(R)),
		hasResult: reactive.NewSignal(false),
		err:       reactive.NewSignal[error](nil),
		policy:    PolicySupersedePending,
	}
	for _, opt := range opts {
		opt.apply(a)
	}
	return a
}

// Submit starts a submission with the given argument. Returns true if
// the submission was accepted, false if the policy dropped it.
//
// With the default policy a new Submit supersedes any pending one:
// the superseded submission's completion is discarded by sequence
// number, so the observed state always tracks the latest dispatch.
func (a *Action[A, R]) Submit(arg A) bool {
	if a.policy == PolicyDropWhilePending && a.state.Get() == StatePending {
		return false
	}

	// Supersede: cancel the previous submission's context.
	a.cancelMu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	seq := a.seq.Add(1)
	workCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.currentSeq = seq
	a.cancelMu.Unlock()

	start := time.Now()
	if a.observer != nil {
		a.observer.SubmissionStarted(a.name)
	}

	a.lp.Dispatch(func() {
		a.state.Set(StatePending)
		a.err.Set(nil)
		if a.onStart != nil {
			a.onStart()
		}
	})

	// The work runs off-loop; its outcome re-enters through Dispatch.
	// Every path below finishes the observer exactly once, so a
	// superseded or dropped submission still balances the in-flight
	// accounting.
	go func() {
		finish := func(err error) {
			if a.observer != nil {
				a.observer.SubmissionFinished(a.name, time.Since(start), err)
			}
		}

		result, err := a.do(workCtx, arg)
		if workCtx.Err() != nil {
			finish(workCtx.Err())
			return
		}

		delivered := a.lp.Dispatch(func() {
			a.cancelMu.Lock()
			stale := a.currentSeq != seq
			a.cancelMu.Unlock()
			if stale {
				finish(context.Canceled)
				return
			}

			if err != nil {
				// Keep any previously resolved data.
				a.err.Set(err)
				a.state.Set(StateRejected)
				if a.onReject != nil {
					a.onReject(err)
				}
			} else {
				a.result.Set(result)
				a.hasResult.Set(true)
				a.err.Set(nil)
				a.state.Set(StateResolved)
				if a.onResolve != nil {
					a.onResolve(result)
				}
			}
			finish(err)
		})
		if !delivered {
			finish(context.Canceled)
		}
	}()

	return true
}

// Reset cancels any pending submission and returns to Idle, clearing
// stored data and error.
func (a *Action[A, R]) Reset() {
	a.cancelMu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.currentSeq = a.seq.Add(1)
	a.cancelMu.Unlock()

	a.lp.Dispatch(func() {
		a.state.Set(StateIdle)
		a.result.Set(*new(R))
		a.hasResult.Set(false)
		a.err.Set(nil)
	})
}

// Name returns the action's descriptive label.
func (a *Action[A, R]) Name() string {
	return a.name
}

// State returns the current lifecycle state.
func (a *Action[A, R]) State() State {
	return a.state.Get()
}

// Pending reports whether a submission is in flight.
func (a *Action[A, R]) Pending() bool {
	return a.state.Get() == StatePending
}

// Result returns the last resolved result and true, or the zero value
// and false if nothing has resolved yet.
func (a *Action[A, R]) Result() (R, bool) {
	if a.hasResult.Get() {
		return a.result.Get(), true
	}
	return *new(R), false
}

// Err returns the last rejection error, or nil.
func (a *Action[A, R]) Err() error {
	return a.err.Get()
}

// Snapshot returns the caller-visible state in one read.
func (a *Action[A, R]) Snapshot() Snapshot[R] {
	st := a.state.Get()
	data, hasData := a.Result()
	snap := Snapshot[R]{
		State:   st,
		Data:    data,
		HasData: hasData,
		Err:     a.err.Get(),
		Pending: st == StatePending,
	}
	if st != StateIdle {
		snap.LastAction = a.name
	}
	return snap
}

// OnTransition subscribes to state changes. The callback runs on the
// event loop with a snapshot taken at transition time. The returned
// function removes the subscription.
func (a *Action[A, R]) OnTransition(fn func(Snapshot[R])) func() {
	return a.state.Subscribe(func(State) {
		fn(a.Snapshot())
	})
}
