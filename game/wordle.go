package game

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/scheduler"
)

// Guess marks.
const (
	MarkCorrect = "correct"
	MarkPresent = "present"
	MarkAbsent  = "absent"
)

// GuessRow is one scored attempt in the shared guess history.
type GuessRow struct {
	Player string   `json:"player"`
	Word   string   `json:"word"`
	Marks  []string `json:"marks"`
}

// Wordle is the cooperative guess game: one shared target word, players
// taking turns submitting full-length guesses until someone hits it or
// the attempt budget runs out.
type Wordle struct {
	Flags
	host   Host
	cfg    config.WordleConfig
	ticker *scheduler.Ticker

	target     string
	lastTarget string
	guesses    []GuessRow
	ring       *TurnRing
	timer      int
	turnStart  time.Time
}

// NewWordle creates the variant in its idle form.
func NewWordle(h Host) *Wordle {
	w := &Wordle{
		Flags: NewFlags(),
		host:  h,
		cfg:   h.Config().Wordle,
	}
	w.ticker = scheduler.New(time.Second, func() { h.Post(w.OnTick) })
	return w
}

func (w *Wordle) OnStart() {}

func (w *Wordle) Dispose() { w.ticker.Stop() }

// ScoreGuess runs the standard two-pass scoring. The first pass marks
// exact positional matches and consumes those target characters; the
// second marks remaining guess characters present only while unconsumed
// occurrences remain, which keeps repeated letters honest: correct plus
// present marks for a letter never exceed its count in the target.
func ScoreGuess(target, guess string) []string {
	n := len(guess)
	marks := make([]string, n)
	remaining := make(map[byte]int)
	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			marks[i] = MarkCorrect
		} else {
			remaining[target[i]]++
		}
	}
	for i := 0; i < n; i++ {
		if marks[i] == MarkCorrect {
			continue
		}
		if remaining[guess[i]] > 0 {
			marks[i] = MarkPresent
			remaining[guess[i]]--
		} else {
			marks[i] = MarkAbsent
		}
	}
	return marks
}

func (w *Wordle) OnMessage(raw json.RawMessage, sender *Player) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	switch env.Type {
	case "wordle/start":
		var msg StartMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		w.handleStart(sender, msg.ReuseWord)
	case "wordle/stop":
		if !sender.Admin {
			w.host.SendTo(sender.ID, NewError("only the admin can stop the game", false))
			return
		}
		w.backToLobby()
	case "wordle/word":
		var msg WordMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		w.handleGuess(sender, msg.Word)
	case "wordle/typing":
		var msg TypingMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		w.host.AntiCheat().RecordTyping(sender.ID)
		w.host.Broadcast(TypingRelayMsg{Type: "typing", From: sender.ID, Text: msg.Text})
	case "wordle/settings":
		w.handleSettings(raw, sender)
	default:
		w.host.SendTo(sender.ID, NewError("unknown message type", true))
	}
}

func (w *Wordle) handleStart(sender *Player, reuseWord bool) {
	if w.host.Lifecycle() == StatePlaying {
		w.host.SendTo(sender.ID, NewError("a game is already running", false))
		return
	}
	if !w.host.Dictionary().Ready() {
		w.host.Broadcast(NewError("dictionary is still loading, try again shortly", false))
		return
	}
	// A remembered target is only reusable while the word length still
	// matches; after a length change a stale target would break scoring.
	if reuseWord && len(w.lastTarget) == w.cfg.WordLength {
		w.target = w.lastTarget
	} else {
		target, err := w.host.Dictionary().RandomWord(w.cfg.WordLength)
		if err != nil {
			slog.Error("target draw failed", "tag", "game", "err", err)
			w.host.Broadcast(NewError("could not draw a target word", false))
			return
		}
		w.target = target
	}

	players := w.host.Players()
	ids := make([]string, 0, len(players))
	for _, p := range players {
		p.ResetGameState(1)
		ids = append(ids, p.ID)
	}
	w.ring = NewTurnRing(ids)
	w.guesses = nil
	w.host.SetLifecycle(StatePlaying)
	w.ticker.Start()
	w.startTurn()
}

func (w *Wordle) startTurn() {
	current := w.ring.Current()
	if current == "" {
		w.gameOver("")
		return
	}
	w.timer = w.cfg.TurnSeconds
	w.host.AntiCheat().BeginTurn(current)
	w.turnStart = time.Now()
	w.host.BroadcastState()
}

func (w *Wordle) OnTick() {
	if w.host.Lifecycle() != StatePlaying {
		w.ticker.Stop()
		return
	}
	w.timer--
	if w.timer <= 0 {
		w.handleTimeout()
		return
	}
	w.host.Broadcast(map[string]interface{}{
		"type": "timer", "seconds": w.timer, "player": w.ring.Current(),
	})
}

// handleTimeout records a synthetic all-absent attempt for the stalled
// player and advances the turn.
func (w *Wordle) handleTimeout() {
	marks := make([]string, w.cfg.WordLength)
	for i := range marks {
		marks[i] = MarkAbsent
	}
	row := GuessRow{
		Player: w.ring.Current(),
		Word:   strings.Repeat("-", w.cfg.WordLength),
		Marks:  marks,
	}
	w.guesses = append(w.guesses, row)
	w.host.Broadcast(map[string]interface{}{"type": "guess", "row": row})
	if len(w.guesses) >= w.cfg.MaxAttempts {
		w.lastTarget = w.target
		w.gameOver("")
		return
	}
	w.ring.Advance()
	w.startTurn()
}

func (w *Wordle) handleGuess(sender *Player, word string) {
	if w.host.Lifecycle() != StatePlaying {
		w.host.SendTo(sender.ID, NewError("no game in progress", false))
		return
	}
	if sender.ID != w.ring.Current() {
		w.host.SendTo(sender.ID, NewError("not your turn", false))
		return
	}
	word = strings.ToUpper(strings.TrimSpace(word))
	if len(word) != w.cfg.WordLength {
		w.host.SendTo(sender.ID, NewError("guess must be exactly "+strconv.Itoa(w.cfg.WordLength)+" letters", false))
		return
	}
	if err := w.host.AntiCheat().Validate(sender.ID, w.turnStart); err != nil {
		slog.Info("guess failed anti-cheat", "tag", "game", "player", sender.Name, "err", err)
		w.host.SendTo(sender.ID, NewError("submission rejected", true))
		return
	}
	if err := w.host.Dictionary().Check(word, ""); err != nil {
		if errors.Is(err, dictionary.ErrUnknownWord) {
			w.host.SendTo(sender.ID, NewError("not in the dictionary", false))
			return
		}
		w.host.Broadcast(NewError("dictionary unavailable, ending the round", false))
		w.gameOver("")
		return
	}

	row := GuessRow{Player: sender.ID, Word: word, Marks: ScoreGuess(w.target, word)}
	w.guesses = append(w.guesses, row)
	w.host.Broadcast(map[string]interface{}{"type": "guess", "row": row})

	if word == w.target {
		sender.Wins++
		w.lastTarget = w.target
		w.gameOver(sender.ID)
		return
	}
	if len(w.guesses) >= w.cfg.MaxAttempts {
		w.lastTarget = w.target
		w.gameOver("")
		return
	}
	w.ring.Advance()
	w.startTurn()
}

func (w *Wordle) gameOver(winnerID string) {
	w.ticker.Stop()
	w.host.SetLifecycle(StateEnded)
	w.host.Broadcast(map[string]interface{}{
		"type": "game_over", "winner": winnerID, "target": w.target,
	})
	w.host.BroadcastState()
}

func (w *Wordle) backToLobby() {
	w.ticker.Stop()
	w.ring = nil
	w.guesses = nil
	w.host.SetLifecycle(StateLobby)
	w.host.BroadcastState()
}

func (w *Wordle) OnPlayerJoin(p *Player) {
	// Mid-round joiners do not participate until the next round starts.
	if w.host.Lifecycle() == StatePlaying {
		p.Alive = false
		return
	}
	p.Alive = true
}

func (w *Wordle) OnPlayerLeave(id string) {
	if w.ring == nil || !w.ring.Contains(id) {
		return
	}
	wasCurrent := w.ring.Remove(id)
	if w.ring.Len() == 0 {
		if w.host.Lifecycle() == StatePlaying {
			w.gameOver("")
		}
		return
	}
	if w.host.Lifecycle() == StatePlaying && wasCurrent {
		w.startTurn()
	}
}

func (w *Wordle) handleSettings(raw json.RawMessage, sender *Player) {
	if !sender.Admin {
		w.host.SendTo(sender.ID, NewError("only the admin can change settings", false))
		return
	}
	var msg SettingsMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	for key, value := range msg.Settings {
		switch key {
		case "wordLength":
			if v, ok := intSetting(value, 3, 8); ok && w.host.Lifecycle() != StatePlaying {
				w.cfg.WordLength = v
			}
		case "maxAttempts":
			if v, ok := intSetting(value, 3, 12); ok {
				w.cfg.MaxAttempts = v
			}
		case "turnSeconds":
			if v, ok := intSetting(value, 10, 120); ok {
				w.cfg.TurnSeconds = v
			}
		case "chatEnabled":
			if v, ok := boolSetting(value); ok {
				w.SetChatEnabled(v)
			}
		case "logEnabled":
			if v, ok := boolSetting(value); ok {
				w.SetLogEnabled(v)
			}
		}
	}
	w.host.BroadcastState()
}

func (w *Wordle) State() map[string]interface{} {
	state := map[string]interface{}{
		"wordLength":  w.cfg.WordLength,
		"maxAttempts": w.cfg.MaxAttempts,
		"attempts":    len(w.guesses),
		"guesses":     w.guesses,
		"timer":       w.timer,
		"chatEnabled": w.ChatEnabled(),
		"logEnabled":  w.LogEnabled(),
	}
	if w.ring != nil {
		state["currentPlayer"] = w.ring.Current()
	}
	return state
}
