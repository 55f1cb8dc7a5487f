package action

// Option configures an Action. Options use a setter interface rather
// than generic function types so a single option value works for any
// Action instantiation.
type Option interface {
	apply(a any)
}

type optionFunc func(a any)

func (f optionFunc) apply(a any) { f(a) }

// SupersedePending makes a new Submit discard any pending submission's
// eventual result. This is the default policy.
func SupersedePending() Option {
	return optionFunc(func(a any) {
		if s, ok := a.(interface{ setPolicy(Policy) }); ok {
			s.setPolicy(PolicySupersedePending)
		}
	})
}

// DropWhilePending makes Submit a no-op while a submission is pending.
// Submit returns false for the dropped call.
func DropWhilePending() Option {
	return optionFunc(func(a any) {
		if s, ok := a.(interface{ setPolicy(Policy) }); ok {
			s.setPolicy(PolicyDropWhilePending)
		}
	})
}

// OnStart registers a callback run on the loop when a submission
// enters Pending.
func OnStart(fn func()) Option {
	return optionFunc(func(a any) {
		if s, ok := a.(interface{ setOnStart(func()) }); ok {
			s.setOnStart(fn)
		}
	})
}

// OnResolve registers a callback run on the loop with the result of a
// successful submission. The callback receives the result as any; use
// the typed onResolve hook on the Action for a typed callback.
func OnResolve(fn func(any)) Option {
	return optionFunc(func(a any) {
		if s, ok := a.(interface{ setOnResolveAny(func(any)) }); ok {
			s.setOnResolveAny(fn)
		}
	})
}

// OnReject registers a callback run on the loop when a submission
// fails.
func OnReject(fn func(error)) Option {
	return optionFunc(func(a any) {
		if s, ok := a.(interface{ setOnReject(func(error)) }); ok {
			s.setOnReject(fn)
		}
	})
}

// WithObserver attaches a lifecycle observer, typically the metrics
// package's Prometheus recorder.
func WithObserver(o Observer) Option {
	return optionFunc(func(a any) {
		if s, ok := a.(interface{ setObserver(Observer) }); ok {
			s.setObserver(o)
		}
	})
}

// Setters used by the options above.

func (a *Action[A, R]) setPolicy(p Policy) { a.policy = p }

func (a *Action[A, R]) setOnStart(fn func()) { a.onStart = fn }

func (a *Action[A, R]) setOnResolveAny(fn func(any)) {
	a.onResolve = func(r R) { fn(r) }
}

func (a *Action[A, R]) setOnReject(fn func(error)) { a.onReject = fn }

func (a *Action[A, R]) setObserver(o Observer) { a.observer = o }
