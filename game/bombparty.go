package game

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/scheduler"
)

const letterCount = 26

// BombParty is the elimination word game: players rotate through a ring
// of alive ids, each racing a ticking timer to submit a corpus word that
// contains the current syllable. A timeout costs a life; the last player
// standing wins.
type BombParty struct {
	Flags
	host   Host
	cfg    config.BombPartyConfig
	ticker *scheduler.Ticker

	countdown   int
	ring        *TurnRing
	syllable    string
	syllableAge int
	timer       int
	turnStart   time.Time
	used        map[string]struct{}
	starters    int
}

// NewBombParty creates the variant in its idle (lobby) form.
func NewBombParty(h Host) *BombParty {
	b := &BombParty{
		Flags: NewFlags(),
		host:  h,
		cfg:   h.Config().BombParty,
		used:  make(map[string]struct{}),
	}
	b.ticker = scheduler.New(time.Second, func() { h.Post(b.OnTick) })
	return b
}

func (b *BombParty) OnStart() {}

func (b *BombParty) Dispose() { b.ticker.Stop() }

func (b *BombParty) OnMessage(raw json.RawMessage, sender *Player) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	switch env.Type {
	case "bombparty/start":
		b.handleStart(sender)
	case "bombparty/stop":
		if !sender.Admin {
			b.host.SendTo(sender.ID, NewError("only the admin can stop the game", false))
			return
		}
		b.backToLobby()
	case "bombparty/word":
		var msg WordMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		b.handleWord(sender, msg.Word)
	case "bombparty/typing":
		var msg TypingMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		b.host.AntiCheat().RecordTyping(sender.ID)
		b.host.Broadcast(TypingRelayMsg{Type: "typing", From: sender.ID, Text: msg.Text})
	case "bombparty/settings":
		b.handleSettings(raw, sender)
	default:
		b.host.SendTo(sender.ID, NewError("unknown message type", true))
	}
}

func (b *BombParty) handleStart(sender *Player) {
	switch b.host.Lifecycle() {
	case StateCountdown:
		// Admin can skip the countdown by forcing the transition.
		if sender.Admin {
			b.beginPlaying()
		}
		return
	case StatePlaying:
		b.host.SendTo(sender.ID, NewError("a game is already running", false))
		return
	}
	if !b.host.Dictionary().Ready() {
		b.host.Broadcast(NewError("dictionary is still loading, try again shortly", false))
		return
	}
	b.countdown = b.cfg.CountdownTicks
	b.host.SetLifecycle(StateCountdown)
	b.host.BroadcastState()
	b.ticker.Start()
}

func (b *BombParty) OnTick() {
	switch b.host.Lifecycle() {
	case StateCountdown:
		b.countdown--
		if b.countdown <= 0 {
			b.beginPlaying()
			return
		}
		b.host.Broadcast(map[string]interface{}{"type": "countdown", "ticks": b.countdown})
	case StatePlaying:
		b.timer--
		if b.timer <= 0 {
			b.explode()
			return
		}
		b.host.Broadcast(map[string]interface{}{
			"type": "timer", "seconds": b.timer, "player": b.ring.Current(),
		})
	default:
		b.ticker.Stop()
	}
}

func (b *BombParty) beginPlaying() {
	players := b.host.Players()
	ids := make([]string, 0, len(players))
	for _, p := range players {
		p.ResetGameState(b.cfg.StartLives)
		ids = append(ids, p.ID)
	}
	b.ring = NewTurnRing(ids)
	b.starters = len(ids)
	b.used = make(map[string]struct{})
	b.syllable = ""
	b.host.SetLifecycle(StatePlaying)
	b.startTurn()
}

// redrawSyllable draws a fresh syllable; a failure ends the run rather
// than letting the game hang on an unusable corpus.
func (b *BombParty) redrawSyllable() bool {
	syllable, err := b.host.Dictionary().RandomSyllable()
	if err != nil {
		slog.Error("syllable draw failed", "tag", "game", "err", err)
		b.host.Broadcast(NewError("dictionary unavailable, ending the round", false))
		b.gameOver("")
		return false
	}
	b.syllable = syllable
	b.syllableAge = 0
	return true
}

func (b *BombParty) startTurn() {
	current := b.ring.Current()
	if current == "" {
		b.gameOver("")
		return
	}
	b.timer = b.turnSeconds()
	switch {
	case b.syllable == "":
		// Opening turn of a round: the change policy counts from here.
		if !b.redrawSyllable() {
			return
		}
	case b.cfg.SyllableChangeTurns <= 0:
		if !b.redrawSyllable() {
			return
		}
	case b.syllableAge >= b.cfg.SyllableChangeTurns:
		if !b.redrawSyllable() {
			return
		}
	default:
		b.syllableAge++
	}
	b.host.AntiCheat().BeginTurn(current)
	b.turnStart = time.Now()
	b.host.BroadcastState()
}

// turnSeconds applies hard mode: past the configured start round the
// timer is drawn uniformly from [max/2, max] instead of being fixed.
func (b *BombParty) turnSeconds() int {
	max := b.cfg.TurnSeconds
	if b.cfg.HardModeStartRound > 0 && b.ring.Round() > b.cfg.HardModeStartRound {
		half := max / 2
		if half < 1 {
			half = 1
		}
		return half + rand.Intn(max-half+1)
	}
	return max
}

func (b *BombParty) handleWord(sender *Player, word string) {
	if b.host.Lifecycle() != StatePlaying {
		b.host.SendTo(sender.ID, NewError("no game in progress", false))
		return
	}
	if sender.ID != b.ring.Current() {
		b.host.SendTo(sender.ID, NewError("not your turn", false))
		return
	}
	word = strings.ToUpper(strings.TrimSpace(word))
	if word == "" {
		return
	}
	if err := b.host.AntiCheat().Validate(sender.ID, b.turnStart); err != nil {
		slog.Info("submission failed anti-cheat", "tag", "game", "player", sender.Name, "err", err)
		b.host.SendTo(sender.ID, NewError("submission rejected", true))
		return
	}
	if _, dup := b.used[word]; dup {
		b.host.Broadcast(NewError(sender.Name+": word already used", false))
		return
	}
	if err := b.host.Dictionary().Check(word, b.syllable); err != nil {
		switch {
		case errors.Is(err, dictionary.ErrMissingSyllable):
			b.host.Broadcast(NewError(sender.Name+": word does not contain "+b.syllable, false))
		case errors.Is(err, dictionary.ErrUnknownWord):
			b.host.Broadcast(NewError(sender.Name+": not in the dictionary", false))
		default:
			b.host.Broadcast(NewError("dictionary unavailable, ending the round", false))
			b.gameOver("")
		}
		return
	}

	b.used[word] = struct{}{}
	b.awardLetters(sender, word)
	b.host.Broadcast(WordAcceptedMsg{Type: "word_accepted", Player: sender.ID, Word: word})
	b.ring.Advance()
	b.startTurn()
}

// awardLetters adds the word's letters to the player's collection, grants
// the long-word bonus letter, and converts a completed alphabet into an
// extra life.
func (b *BombParty) awardLetters(p *Player, word string) {
	count := p.CollectLetters(word)
	if len(word) >= b.cfg.BonusLetterMinLength {
		if missing := p.MissingLetters(); len(missing) > 0 {
			letter := missing[rand.Intn(len(missing))]
			p.Letters[letter] = struct{}{}
			count = len(p.Letters)
			b.host.Broadcast(BonusMsg{Type: "bonus", Player: p.ID, Letter: string(letter)})
		}
	}
	if count >= letterCount {
		if p.Lives < b.cfg.MaxLives {
			p.Lives++
		}
		p.Letters = make(map[byte]struct{})
		b.host.Broadcast(BonusMsg{Type: "bonus", Player: p.ID, ExtraLife: true})
	}
}

func (b *BombParty) explode() {
	current := b.ring.Current()
	p, ok := b.host.Player(current)
	if !ok {
		b.checkWin()
		return
	}
	p.Lives--
	eliminated := p.Lives <= 0
	if eliminated {
		p.Alive = false
		b.ring.Remove(p.ID)
	} else {
		b.ring.Advance()
	}
	b.host.Broadcast(ExplosionMsg{
		Type: "explosion", Player: p.ID, LivesLeft: p.Lives, Eliminated: eliminated,
	})
	if b.checkWin() {
		return
	}
	b.startTurn()
}

// checkWin evaluates the win condition after every elimination or
// departure. It reports whether the game ended.
func (b *BombParty) checkWin() bool {
	if b.host.Lifecycle() != StatePlaying {
		return true
	}
	switch {
	case b.ring.Len() == 0:
		b.gameOver("")
		return true
	case b.ring.Len() == 1 && b.starters > 1:
		winnerID := b.ring.Current()
		if p, ok := b.host.Player(winnerID); ok {
			p.Wins++
		}
		b.gameOver(winnerID)
		return true
	}
	return false
}

func (b *BombParty) gameOver(winnerID string) {
	b.ticker.Stop()
	b.host.SetLifecycle(StateEnded)
	b.host.Broadcast(GameOverMsg{Type: "game_over", Winner: winnerID})
	b.host.BroadcastState()
}

func (b *BombParty) backToLobby() {
	b.ticker.Stop()
	b.ring = nil
	b.syllable = ""
	b.host.SetLifecycle(StateLobby)
	b.host.BroadcastState()
}

func (b *BombParty) OnPlayerJoin(p *Player) {
	// Joiners during a live round spectate until the next game. A joiner
	// during the countdown is seated when play begins because the ring is
	// built from the full roster.
	if b.host.Lifecycle() == StatePlaying {
		p.Alive = false
		return
	}
	p.Alive = true
}

func (b *BombParty) OnPlayerLeave(id string) {
	if b.ring == nil || !b.ring.Contains(id) {
		return
	}
	wasCurrent := b.ring.Remove(id)
	if b.checkWin() {
		return
	}
	if b.host.Lifecycle() == StatePlaying && wasCurrent {
		b.startTurn()
	}
}

func (b *BombParty) handleSettings(raw json.RawMessage, sender *Player) {
	if !sender.Admin {
		b.host.SendTo(sender.ID, NewError("only the admin can change settings", false))
		return
	}
	var msg SettingsMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	for key, value := range msg.Settings {
		switch key {
		case "turnSeconds":
			if v, ok := intSetting(value, 5, 60); ok {
				b.cfg.TurnSeconds = v
			}
		case "countdownTicks":
			if v, ok := intSetting(value, 3, 10); ok {
				b.cfg.CountdownTicks = v
			}
		case "startLives":
			if v, ok := intSetting(value, 1, 5); ok {
				b.cfg.StartLives = v
			}
		case "maxLives":
			if v, ok := intSetting(value, 1, 8); ok {
				b.cfg.MaxLives = v
			}
		case "syllableChangeTurns":
			if v, ok := intSetting(value, 0, 10); ok {
				b.cfg.SyllableChangeTurns = v
			}
		case "bonusLetterMinLength":
			if v, ok := intSetting(value, 8, 15); ok {
				b.cfg.BonusLetterMinLength = v
			}
		case "hardModeStartRound":
			if v, ok := intSetting(value, 0, 20); ok {
				b.cfg.HardModeStartRound = v
			}
		case "chatEnabled":
			if v, ok := boolSetting(value); ok {
				b.SetChatEnabled(v)
			}
		case "logEnabled":
			if v, ok := boolSetting(value); ok {
				b.SetLogEnabled(v)
			}
		}
	}
	b.host.BroadcastState()
}

func (b *BombParty) State() map[string]interface{} {
	state := map[string]interface{}{
		"syllable":    b.syllable,
		"timer":       b.timer,
		"chatEnabled": b.ChatEnabled(),
		"logEnabled":  b.LogEnabled(),
	}
	if b.ring != nil {
		state["currentPlayer"] = b.ring.Current()
		state["round"] = b.ring.Round()
	}
	if b.host.Lifecycle() == StateCountdown {
		state["countdown"] = b.countdown
	}
	return state
}
