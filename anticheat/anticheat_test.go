package anticheat

import (
	"errors"
	"testing"
	"time"

	"wordroom-server/config"
)

func testGate() *Gate {
	return New(config.AntiCheatConfig{MinReactionMS: 50, MinTypingEvents: 2})
}

func TestRejectsFastReaction(t *testing.T) {
	g := testGate()
	g.BeginTurn("p1")
	g.RecordTyping("p1")
	g.RecordTyping("p1")

	err := g.Validate("p1", time.Now())
	if !errors.Is(err, ErrReactionTooFast) {
		t.Errorf("expected ErrReactionTooFast, got %v", err)
	}
}

func TestRejectsTooFewKeystrokes(t *testing.T) {
	g := testGate()
	g.BeginTurn("p1")
	g.RecordTyping("p1")

	err := g.Validate("p1", time.Now().Add(-time.Second))
	if !errors.Is(err, ErrTooFewKeystrokes) {
		t.Errorf("expected ErrTooFewKeystrokes, got %v", err)
	}
}

func TestPassesBothHeuristics(t *testing.T) {
	g := testGate()
	g.BeginTurn("p1")
	g.RecordTyping("p1")
	g.RecordTyping("p1")

	if err := g.Validate("p1", time.Now().Add(-time.Second)); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
}

func TestBeginTurnClearsTyping(t *testing.T) {
	g := testGate()
	g.RecordTyping("p1")
	g.RecordTyping("p1")
	g.BeginTurn("p1")

	err := g.Validate("p1", time.Now().Add(-time.Second))
	if !errors.Is(err, ErrTooFewKeystrokes) {
		t.Errorf("expected counter reset on BeginTurn, got %v", err)
	}
}

func TestZeroThresholdsDisableChecks(t *testing.T) {
	g := New(config.AntiCheatConfig{})
	g.BeginTurn("p1")

	if err := g.Validate("p1", time.Now()); err != nil {
		t.Errorf("expected disabled gate to pass everything, got %v", err)
	}
}
