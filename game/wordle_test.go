package game

import (
	"reflect"
	"strings"
	"testing"
)

func TestScoreGuess(t *testing.T) {
	tests := []struct {
		name   string
		target string
		guess  string
		want   []string
	}{
		{
			name:   "all correct",
			target: "APPLE",
			guess:  "APPLE",
			want:   []string{MarkCorrect, MarkCorrect, MarkCorrect, MarkCorrect, MarkCorrect},
		},
		{
			name:   "all absent",
			target: "APPLE",
			guess:  "STORK",
			want:   []string{MarkAbsent, MarkAbsent, MarkAbsent, MarkAbsent, MarkAbsent},
		},
		{
			name:   "repeated guess letter limited by target count",
			target: "APPLE",
			guess:  "ALERT",
			want:   []string{MarkCorrect, MarkPresent, MarkPresent, MarkAbsent, MarkAbsent},
		},
		{
			name:   "extra repeats marked absent once target count is used",
			target: "APPLE",
			guess:  "POPPY",
			want:   []string{MarkPresent, MarkAbsent, MarkCorrect, MarkAbsent, MarkAbsent},
		},
		{
			name:   "correct consumes before present",
			target: "ABBEY",
			guess:  "BABES",
			want:   []string{MarkPresent, MarkPresent, MarkCorrect, MarkCorrect, MarkAbsent},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScoreGuess(tc.target, tc.guess); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ScoreGuess(%q, %q) = %v, want %v", tc.target, tc.guess, got, tc.want)
			}
		})
	}
}

// runningWordle returns a variant mid-game with a pinned target.
func runningWordle(t *testing.T, words []string, target string) (*Wordle, *fakeHost) {
	t.Helper()
	h := newFakeHost(t, words, "p1", "p2")
	w := NewWordle(h)
	t.Cleanup(w.Dispose)

	for _, p := range h.Players() {
		p.ResetGameState(1)
	}
	w.target = target
	w.ring = newTestRing("p1", "p2")
	w.timer = w.cfg.TurnSeconds
	h.lifecycle = StatePlaying
	return w, h
}

func TestWordleCorrectGuessWins(t *testing.T) {
	w, h := runningWordle(t, []string{"apple", "alert"}, "APPLE")

	w.handleGuess(h.players["p1"], "apple")

	if h.players["p1"].Wins != 1 {
		t.Errorf("expected the guesser to win, wins=%d", h.players["p1"].Wins)
	}
	if h.lifecycle != StateEnded {
		t.Errorf("expected game over, lifecycle=%v", h.lifecycle)
	}
	if w.lastTarget != "APPLE" {
		t.Error("expected the target to be remembered for replays")
	}
}

func TestWordleWrongGuessAdvancesTurn(t *testing.T) {
	w, h := runningWordle(t, []string{"apple", "alert"}, "APPLE")

	w.handleGuess(h.players["p1"], "alert")

	if len(w.guesses) != 1 {
		t.Fatalf("expected one recorded guess, got %d", len(w.guesses))
	}
	row := w.guesses[0]
	if row.Word != "ALERT" || row.Player != "p1" {
		t.Errorf("unexpected guess row %+v", row)
	}
	want := []string{MarkCorrect, MarkPresent, MarkPresent, MarkAbsent, MarkAbsent}
	if !reflect.DeepEqual(row.Marks, want) {
		t.Errorf("expected marks %v, got %v", want, row.Marks)
	}
	if w.ring.Current() != "p2" {
		t.Errorf("expected turn to pass, got %q", w.ring.Current())
	}
}

func TestWordleWrongLengthRejected(t *testing.T) {
	w, h := runningWordle(t, []string{"apple", "ant"}, "APPLE")

	w.handleGuess(h.players["p1"], "ant")

	if len(w.guesses) != 0 {
		t.Error("expected a wrong-length guess not to consume an attempt")
	}
	if len(h.sent["p1"]) == 0 {
		t.Error("expected a private length error")
	}
	if w.ring.Current() != "p1" {
		t.Error("expected turn to stay with the sender")
	}
}

func TestWordleUnknownWordRejected(t *testing.T) {
	w, h := runningWordle(t, []string{"apple"}, "APPLE")

	w.handleGuess(h.players["p1"], "zzzzz")

	if len(w.guesses) != 0 {
		t.Error("expected an unknown word not to consume an attempt")
	}
	if len(h.sent["p1"]) == 0 {
		t.Error("expected a private dictionary error")
	}
}

func TestWordleAttemptBudgetExhausted(t *testing.T) {
	w, h := runningWordle(t, []string{"apple", "alert"}, "APPLE")
	w.cfg.MaxAttempts = 2

	w.handleGuess(h.players["p1"], "alert")
	w.handleGuess(h.players["p2"], "alert")

	if h.lifecycle != StateEnded {
		t.Errorf("expected game over after the attempt budget, lifecycle=%v", h.lifecycle)
	}
	if h.players["p1"].Wins != 0 || h.players["p2"].Wins != 0 {
		t.Error("expected no winner on a failed round")
	}
}

func TestWordleTimeoutRecordsSyntheticRow(t *testing.T) {
	w, _ := runningWordle(t, []string{"apple"}, "APPLE")

	w.handleTimeout()

	if len(w.guesses) != 1 {
		t.Fatalf("expected one synthetic row, got %d", len(w.guesses))
	}
	row := w.guesses[0]
	if row.Word != strings.Repeat("-", w.cfg.WordLength) {
		t.Errorf("expected a placeholder word, got %q", row.Word)
	}
	for _, mark := range row.Marks {
		if mark != MarkAbsent {
			t.Errorf("expected all-absent marks, got %v", row.Marks)
		}
	}
	if w.ring.Current() != "p2" {
		t.Error("expected the timeout to pass the turn")
	}
}

func TestWordleReuseTarget(t *testing.T) {
	w, h := runningWordle(t, []string{"apple", "alert", "grape"}, "APPLE")
	w.handleGuess(h.players["p1"], "apple")

	h.lifecycle = StateEnded
	w.handleStart(h.players["p1"], true)

	if w.target != "APPLE" {
		t.Errorf("expected the previous target to be reused, got %q", w.target)
	}
	if h.lifecycle != StatePlaying {
		t.Error("expected a new round to start")
	}
}

func TestWordleStaleTargetRedrawnAfterLengthChange(t *testing.T) {
	w, h := runningWordle(t, []string{"planet"}, "APPLE")
	w.lastTarget = "APPLE"
	w.cfg.WordLength = 6
	h.lifecycle = StateEnded

	w.handleStart(h.players["p1"], true)

	if w.target != "PLANET" {
		t.Fatalf("expected a fresh six-letter target, got %q", w.target)
	}
	w.ring = newTestRing("p1", "p2")
	w.handleGuess(h.players["p1"], "planet")
	if h.lifecycle != StateEnded || h.players["p1"].Wins != 1 {
		t.Error("expected the six-letter guess to be scored against the fresh target")
	}
}

func TestWordleMidGameJoinerSpectates(t *testing.T) {
	w, _ := runningWordle(t, []string{"apple"}, "APPLE")

	joiner := NewPlayer("p3", "player p3", make(chan []byte, 16))
	joiner.Alive = true
	w.OnPlayerJoin(joiner)

	if joiner.Alive {
		t.Error("expected a mid-round joiner to spectate")
	}
}

func TestWordleLastPlayerLeavingEndsGame(t *testing.T) {
	w, h := runningWordle(t, []string{"apple"}, "APPLE")

	w.OnPlayerLeave("p1")
	w.OnPlayerLeave("p2")

	if h.lifecycle != StateEnded {
		t.Errorf("expected game over when the ring empties, lifecycle=%v", h.lifecycle)
	}
}
