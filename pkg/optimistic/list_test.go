package optimistic

import (
	"strings"
	"testing"
	"time"

	"github.com/formlab-dev/formlab/pkg/loop"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAppendCopies(t *testing.T) {
	base := []string{"a", "b"}
	got := Append(base, "c")

	if len(got) != 3 || got[2] != "c" {
		t.Errorf("Append = %v, want [a b c]", got)
	}
	if len(base) != 2 {
		t.Errorf("base mutated: %v", base)
	}

	// Writing through the result must not reach the base backing array.
	got[0] = "changed"
	if base[0] != "a" {
		t.Errorf("Append aliased the base slice: %v", base)
	}
}

func TestAppendEmptyBase(t *testing.T) {
	got := Append(nil, 1)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Append(nil, 1) = %v", got)
	}
}

func TestApplyShowsProvisionalEntry(t *testing.T) {
	lp := loop.New()
	defer lp.Close()

	l := NewList[string](lp)
	l.Seed([]string{"existing"})

	token := l.Apply("tentative")
	if !strings.HasPrefix(token, TokenPrefix) {
		t.Errorf("token %q lacks prefix %q", token, TokenPrefix)
	}
	if !IsToken(token) {
		t.Errorf("IsToken(%q) = false", token)
	}

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	last := entries[len(entries)-1]
	if last.Value != "tentative" || !last.Provisional() {
		t.Errorf("last entry = %+v, want provisional tentative", last)
	}
	if entries[0].Provisional() {
		t.Error("seeded entry marked provisional")
	}
	if l.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", l.PendingCount())
	}
}

func TestConfirmReplacesProvisionalEntry(t *testing.T) {
	lp := loop.New()
	defer lp.Close()

	l := NewList[string](lp, WithRevertWindow(time.Hour))
	l.Seed([]string{"a"})

	token := l.Apply("draft")
	if !l.Confirm(token, "final") {
		t.Fatal("Confirm returned false for a live token")
	}

	values := l.Values()
	if len(values) != 2 || values[1] != "final" {
		t.Errorf("Values() = %v, want [a final]", values)
	}
	for _, e := range l.Entries() {
		if e.Provisional() {
			t.Errorf("provisional entry survived Confirm: %+v", e)
		}
	}
	if l.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after Confirm", l.PendingCount())
	}

	// Confirming again is a no-op.
	if l.Confirm(token, "again") {
		t.Error("Confirm returned true for a spent token")
	}
}

func TestTimedRevertRestoresBase(t *testing.T) {
	lp := loop.New()
	defer lp.Close()

	var reverted bool
	done := make(chan struct{})
	l := NewList[string](lp,
		WithRevertWindow(30*time.Millisecond),
		OnRevert(func() { reverted = true; close(done) }),
	)
	l.Seed([]string{"a", "b"})

	l.Apply("never confirmed")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("revert never fired")
	}

	values := l.Values()
	if len(values) != 2 || values[0] != "a" || values[1] != "b" {
		t.Errorf("Values() after revert = %v, want [a b]", values)
	}
	if !reverted {
		t.Error("OnRevert callback not invoked")
	}
}

func TestRevertDropsAllProvisionalEntries(t *testing.T) {
	lp := loop.New()
	defer lp.Close()

	done := make(chan struct{})
	l := NewList[int](lp,
		WithRevertWindow(30*time.Millisecond),
		OnRevert(func() {
			select {
			case <-done:
			default:
				close(done)
			}
		}),
	)
	l.Seed([]int{1})

	// Two pending optimistic items; one timer expiring reverts both.
	l.Apply(2)
	l.Apply(3)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("revert never fired")
	}

	waitFor(t, func() bool { return l.PendingCount() == 0 }, "pending entries survived revert")
	if values := l.Values(); len(values) != 1 || values[0] != 1 {
		t.Errorf("Values() after revert = %v, want [1]", values)
	}
}

func TestConfirmCancelsRevert(t *testing.T) {
	lp := loop.New()
	defer lp.Close()

	l := NewList[string](lp, WithRevertWindow(30*time.Millisecond))
	l.Seed([]string{"a"})

	token := l.Apply("item")
	l.Confirm(token, "item")

	time.Sleep(80 * time.Millisecond)

	values := l.Values()
	if len(values) != 2 {
		t.Errorf("confirmed entry reverted anyway: %v", values)
	}
}

func TestSubscribeSeesChanges(t *testing.T) {
	lp := loop.New()
	defer lp.Close()

	l := NewList[string](lp, WithRevertWindow(time.Hour))

	var lengths []int
	unsub := l.Subscribe(func(entries []Entry[string]) {
		lengths = append(lengths, len(entries))
	})
	defer unsub()

	l.Seed([]string{"a"})
	token := l.Apply("b")
	l.Confirm(token, "b")

	if len(lengths) != 3 || lengths[0] != 1 || lengths[1] != 2 || lengths[2] != 2 {
		t.Errorf("observed lengths = %v, want [1 2 2]", lengths)
	}
}
