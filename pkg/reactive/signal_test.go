package reactive

import (
	"sync"
	"testing"
)

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(10)

	if got := s.Get(); got != 10 {
		t.Errorf("Get() = %d, want 10", got)
	}

	s.Set(42)
	if got := s.Get(); got != 42 {
		t.Errorf("Get() after Set = %d, want 42", got)
	}
}

func TestSignalUpdate(t *testing.T) {
	s := NewSignal(1)

	s.Update(func(v int) int { return v + 9 })
	if got := s.Get(); got != 10 {
		t.Errorf("Get() after Update = %d, want 10", got)
	}
}

func TestSignalSubscribe(t *testing.T) {
	s := NewSignal("initial")

	var seen []string
	unsub := s.Subscribe(func(v string) {
		seen = append(seen, v)
	})

	s.Set("a")
	s.Set("b")

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("subscriber saw %v, want [a b]", seen)
	}

	unsub()
	s.Set("c")

	if len(seen) != 2 {
		t.Errorf("subscriber notified after unsubscribe: %v", seen)
	}

	// Second unsubscribe is a no-op.
	unsub()
}

func TestSignalEqualitySuppressesNotify(t *testing.T) {
	s := NewSignalEq(5, func(a, b int) bool { return a == b })

	notified := 0
	s.Subscribe(func(int) { notified++ })

	s.Set(5) // unchanged
	if notified != 0 {
		t.Errorf("notified %d times for unchanged value, want 0", notified)
	}

	s.Set(6)
	if notified != 1 {
		t.Errorf("notified %d times for changed value, want 1", notified)
	}

	s.Update(func(v int) int { return v }) // unchanged
	if notified != 1 {
		t.Errorf("notified %d times after no-op Update, want 1", notified)
	}
}

func TestSignalConcurrentAccess(t *testing.T) {
	s := NewSignal(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(n)
				_ = s.Get()
			}
		}(i)
	}
	wg.Wait()

	got := s.Get()
	if got < 0 || got >= 8 {
		t.Errorf("final value %d outside written range", got)
	}
}
