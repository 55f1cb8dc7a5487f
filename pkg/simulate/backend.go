package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults chosen to feel like a slow-ish real API.
const (
	DefaultLatency     = 800 * time.Millisecond
	DefaultFailureRate = 0.10
)

// Result is the payload a successful call resolves to: a fresh
// identifier, the echoed input fields, and a creation timestamp.
type Result struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CallError is the injected transport failure. It is recoverable by
// resubmission and carries the endpoint label for the message.
type CallError struct {
	Endpoint string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("simulated request to %q failed, please retry", e.Endpoint)
}

// Backend is the fake server behind the action simulator. Every call
// waits a fixed latency, then fails with a configured probability or
// resolves to a Result echoing the input.
//
// Calls are independent: nothing is cached or persisted, and the
// failure roll is drawn freshly per call.
type Backend struct {
	latency     time.Duration
	perEndpoint map[string]time.Duration
	failureRate float64

	rng   *rand.Rand
	rngMu sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithLatency sets the default per-call latency.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.latency = d }
}

// WithEndpointLatency overrides the latency for one endpoint label.
func WithEndpointLatency(endpoint string, d time.Duration) Option {
	return func(b *Backend) { b.perEndpoint[endpoint] = d }
}

// WithFailureRate sets the injected failure probability in [0, 1].
func WithFailureRate(p float64) Option {
	return func(b *Backend) {
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		b.failureRate = p
	}
}

// WithSeed makes the failure injection deterministic for tests.
func WithSeed(seed int64) Option {
	return func(b *Backend) { b.rng = rand.New(rand.NewSource(seed)) }
}

// New creates a Backend with the default latency and failure rate.
func New(opts ...Option) *Backend {
	b := &Backend{
		latency:     DefaultLatency,
		perEndpoint: make(map[string]time.Duration),
		failureRate: DefaultFailureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Call simulates a write against the named endpoint. The endpoint is a
// descriptive label (for example "updateProfile"), not an address.
//
// The latency wait respects ctx; a cancelled context returns ctx.Err()
// without rolling for failure.
func (b *Backend) Call(ctx context.Context, endpoint string, fields map[string]any) (Result, error) {
	if d := b.latencyFor(endpoint); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	if b.roll() < b.failureRate {
		return Result{}, &CallError{Endpoint: endpoint}
	}

	echoed := make(map[string]any, len(fields))
	for k, v := range fields {
		echoed[k] = v
	}
	return Result{
		ID:        uuid.NewString(),
		Fields:    echoed,
		CreatedAt: time.Now(),
	}, nil
}

// FailureRate returns the configured failure probability.
func (b *Backend) FailureRate() float64 {
	return b.failureRate
}

func (b *Backend) latencyFor(endpoint string) time.Duration {
	if d, ok := b.perEndpoint[endpoint]; ok {
		return d
	}
	return b.latency
}

func (b *Backend) roll() float64 {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Float64()
}
