package anticheat

import (
	"errors"
	"time"

	"wordroom-server/config"
)

// Heuristic failures. Both map to the same player-facing rejection; the
// distinction is for logging.
var (
	ErrReactionTooFast  = errors.New("submission faster than minimum reaction time")
	ErrTooFewKeystrokes = errors.New("submission with too few typing events")
)

// Gate validates turn submissions against two heuristics: a minimum
// reaction time since the turn began, and a minimum number of typing
// preview events observed during the turn. Either threshold set to zero
// disables that check.
//
// A Gate belongs to a single room actor and is not safe for concurrent use.
type Gate struct {
	minReaction time.Duration
	minTyping   int
	typing      map[string]int
}

// New creates a Gate from the configured thresholds.
func New(cfg config.AntiCheatConfig) *Gate {
	return &Gate{
		minReaction: time.Duration(cfg.MinReactionMS) * time.Millisecond,
		minTyping:   cfg.MinTypingEvents,
		typing:      make(map[string]int),
	}
}

// BeginTurn clears the typing counter for the newly active player.
func (g *Gate) BeginTurn(playerID string) {
	delete(g.typing, playerID)
}

// RecordTyping counts one typing preview event for the player.
func (g *Gate) RecordTyping(playerID string) {
	g.typing[playerID]++
}

// Forget drops all state for a departed player.
func (g *Gate) Forget(playerID string) {
	delete(g.typing, playerID)
}

// Validate checks a submission from playerID for a turn that began at
// turnStart. It returns nil when the submission passes both heuristics.
func (g *Gate) Validate(playerID string, turnStart time.Time) error {
	if g.minReaction > 0 && time.Since(turnStart) < g.minReaction {
		return ErrReactionTooFast
	}
	if g.minTyping > 0 && g.typing[playerID] < g.minTyping {
		return ErrTooFewKeystrokes
	}
	return nil
}
