package game

import "testing"

func newTestRing(ids ...string) *TurnRing {
	r := NewTurnRing(ids)
	r.idx = 0 // fixed start for deterministic assertions
	return r
}

func TestTurnRingRotation(t *testing.T) {
	r := newTestRing("a", "b", "c")

	want := []string{"a", "b", "c", "a", "b"}
	for i, id := range want {
		if r.Current() != id {
			t.Fatalf("turn %d: expected %q, got %q", i, id, r.Current())
		}
		r.Advance()
	}
}

func TestTurnRingRoundCounter(t *testing.T) {
	r := newTestRing("a", "b", "c")
	if r.Round() != 1 {
		t.Fatalf("expected round 1 at start, got %d", r.Round())
	}
	r.Advance()
	r.Advance()
	if r.Round() != 1 {
		t.Errorf("expected round 1 before everyone played, got %d", r.Round())
	}
	r.Advance()
	if r.Round() != 2 {
		t.Errorf("expected round 2 after everyone played, got %d", r.Round())
	}
}

func TestTurnRingRemoveCurrent(t *testing.T) {
	r := newTestRing("a", "b", "c")

	if !r.Remove("a") {
		t.Error("expected Remove of the active player to report true")
	}
	if r.Current() != "b" {
		t.Errorf("expected next player after removal, got %q", r.Current())
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 remaining, got %d", r.Len())
	}
}

func TestTurnRingRemoveBeforeCurrent(t *testing.T) {
	r := newTestRing("a", "b", "c")
	r.Advance() // current: b

	if r.Remove("a") {
		t.Error("expected Remove of a non-active player to report false")
	}
	if r.Current() != "b" {
		t.Errorf("expected current to be unaffected, got %q", r.Current())
	}
	r.Advance()
	if r.Current() != "c" {
		t.Errorf("expected rotation to continue with c, got %q", r.Current())
	}
}

func TestTurnRingRemoveLastWraps(t *testing.T) {
	r := newTestRing("a", "b", "c")
	r.Advance()
	r.Advance() // current: c

	r.Remove("c")
	if r.Current() != "a" {
		t.Errorf("expected wrap to first player, got %q", r.Current())
	}
}

func TestTurnRingEmpty(t *testing.T) {
	r := newTestRing("a")
	r.Remove("a")
	if r.Current() != "" {
		t.Errorf("expected empty current, got %q", r.Current())
	}
	if r.Advance() != "" {
		t.Error("expected Advance on empty ring to return empty id")
	}
	if r.Contains("a") {
		t.Error("expected removed id to be gone")
	}
}
