package events

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmitCallsHandlersInOrder(t *testing.T) {
	var e Emitter
	var got []string

	e.On(Added, func(Name) { got = append(got, "first") })
	e.On(Added, func(Name) { got = append(got, "second") })
	e.On(Removed, func(Name) { got = append(got, "removed") })

	e.Emit(Added)

	if diff := cmp.Diff([]string{"first", "second"}, got); diff != "" {
		t.Errorf("handler order mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerReceivesEventName(t *testing.T) {
	var e Emitter
	var got Name
	e.On(Sorted, func(n Name) { got = n })
	e.Emit(Sorted)
	if got != Sorted {
		t.Errorf("handler got %q, want %q", got, Sorted)
	}
}

func TestOffRemovesOnlyThatHandler(t *testing.T) {
	var e Emitter
	calls := map[string]int{}

	a := e.On(Added, func(Name) { calls["a"]++ })
	e.On(Added, func(Name) { calls["b"]++ })

	if !e.Off(a) {
		t.Fatal("Off returned false for a live subscription")
	}
	if e.Off(a) {
		t.Error("second Off should report false")
	}

	e.Emit(Added)

	if calls["a"] != 0 {
		t.Errorf("removed handler called %d times", calls["a"])
	}
	if calls["b"] != 1 {
		t.Errorf("remaining handler called %d times, want 1", calls["b"])
	}
	if n := e.Count(Added); n != 1 {
		t.Errorf("Count(Added) = %d, want 1", n)
	}
}

func TestOffDuringEmit(t *testing.T) {
	var e Emitter
	var second Subscription
	calls := 0

	e.On(Added, func(Name) {
		calls++
		e.Off(second)
	})
	second = e.On(Added, func(Name) { calls++ })

	// The snapshot taken by Emit still includes the second handler.
	e.Emit(Added)
	if calls != 2 {
		t.Fatalf("first emit: calls = %d, want 2", calls)
	}

	calls = 0
	e.Emit(Added)
	if calls != 1 {
		t.Errorf("second emit: calls = %d, want 1", calls)
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	var e Emitter
	sub := e.On(Added, nil)
	if sub.Valid() {
		t.Error("nil handler should yield an invalid subscription")
	}
	if e.Count(Added) != 0 {
		t.Error("nil handler should not be registered")
	}
	if e.Off(sub) {
		t.Error("Off on invalid subscription should report false")
	}
}

func TestNames(t *testing.T) {
	var e Emitter
	s := e.On(Sorted, func(Name) {})
	e.On(Added, func(Name) {})

	if diff := cmp.Diff([]Name{Added, Sorted}, e.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}

	e.Off(s)
	if diff := cmp.Diff([]Name{Added}, e.Names()); diff != "" {
		t.Errorf("Names after Off mismatch (-want +got):\n%s", diff)
	}
	if s.Name() != Sorted {
		t.Errorf("Subscription.Name() = %q, want %q", s.Name(), Sorted)
	}
}
