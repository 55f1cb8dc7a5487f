package simulate

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestCallEchoesFields(t *testing.T) {
	b := New(WithLatency(0), WithFailureRate(0))

	fields := map[string]any{"name": "Ann", "age": 30}
	res, err := b.Call(context.Background(), "updateProfile", fields)
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}

	if res.ID == "" {
		t.Error("result ID is empty")
	}
	if res.CreatedAt.IsZero() {
		t.Error("result CreatedAt is zero")
	}
	if res.Fields["name"] != "Ann" || res.Fields["age"] != 30 {
		t.Errorf("echoed fields = %v", res.Fields)
	}

	// The echo is a copy, not the caller's map.
	res.Fields["name"] = "mutated"
	if fields["name"] != "Ann" {
		t.Error("Call aliased the input field map")
	}
}

func TestCallsAreIndependent(t *testing.T) {
	b := New(WithLatency(0), WithFailureRate(0))

	first, err := b.Call(context.Background(), "addComment", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("first Call() error: %v", err)
	}
	second, err := b.Call(context.Background(), "addComment", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("second Call() error: %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("identical inputs shared a result ID %q", first.ID)
	}
}

func TestFailureCarriesEndpointLabel(t *testing.T) {
	b := New(WithLatency(0), WithFailureRate(1))

	_, err := b.Call(context.Background(), "updateProfile", nil)
	if err == nil {
		t.Fatal("expected injected failure at rate 1.0")
	}

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error type = %T, want *CallError", err)
	}
	if callErr.Endpoint != "updateProfile" {
		t.Errorf("Endpoint = %q, want updateProfile", callErr.Endpoint)
	}
	if !strings.Contains(err.Error(), "updateProfile") {
		t.Errorf("message %q does not mention the endpoint", err.Error())
	}
}

func TestFailureRateConverges(t *testing.T) {
	b := New(WithLatency(0), WithSeed(1))

	const runs = 10000
	failures := 0
	for i := 0; i < runs; i++ {
		if _, err := b.Call(context.Background(), "updateProfile", nil); err != nil {
			failures++
		}
	}

	observed := float64(failures) / runs
	if math.Abs(observed-DefaultFailureRate) > 0.02 {
		t.Errorf("observed failure rate %.4f, want %.2f ±0.02", observed, DefaultFailureRate)
	}
}

func TestCallRespectsContext(t *testing.T) {
	b := New(WithLatency(5 * time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := b.Call(ctx, "updateProfile", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled call waited out the latency")
	}
}

func TestEndpointLatencyOverride(t *testing.T) {
	b := New(
		WithLatency(5*time.Second),
		WithEndpointLatency("fast", 0),
		WithFailureRate(0),
	)

	start := time.Now()
	if _, err := b.Call(context.Background(), "fast", nil); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("endpoint latency override not applied")
	}
}
