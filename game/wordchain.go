package game

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/scheduler"
)

// seedWordLength is the length of the randomly drawn word that opens a chain.
const seedWordLength = 5

// LastTurn records a player's most recent accepted word for observability.
type LastTurn struct {
	Word       string `json:"word"`
	LinkLetter string `json:"linkLetter"`
}

// WordChain is the chain word game: each submission must start with the
// last letter of the previous accepted word. Timeouts cost lives; the
// minimum word length grows with the round counter once hard mode kicks in.
type WordChain struct {
	Flags
	host   Host
	cfg    config.WordChainConfig
	ticker *scheduler.Ticker

	ring       *TurnRing
	chainWord  string
	linkLetter byte
	used       map[string]struct{}
	lastTurns  map[string]LastTurn
	starters   int
	timer      int
	turnStart  time.Time
}

// NewWordChain creates the variant in its idle form.
func NewWordChain(h Host) *WordChain {
	c := &WordChain{
		Flags:     NewFlags(),
		host:      h,
		cfg:       h.Config().WordChain,
		used:      make(map[string]struct{}),
		lastTurns: make(map[string]LastTurn),
	}
	c.ticker = scheduler.New(time.Second, func() { h.Post(c.OnTick) })
	return c
}

func (c *WordChain) OnStart() {}

func (c *WordChain) Dispose() { c.ticker.Stop() }

func (c *WordChain) OnMessage(raw json.RawMessage, sender *Player) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	switch env.Type {
	case "wordchain/start":
		c.handleStart(sender)
	case "wordchain/stop":
		if !sender.Admin {
			c.host.SendTo(sender.ID, NewError("only the admin can stop the game", false))
			return
		}
		c.backToLobby()
	case "wordchain/word":
		var msg WordMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		c.handleWord(sender, msg.Word)
	case "wordchain/typing":
		var msg TypingMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		c.host.AntiCheat().RecordTyping(sender.ID)
		c.host.Broadcast(TypingRelayMsg{Type: "typing", From: sender.ID, Text: msg.Text})
	case "wordchain/settings":
		c.handleSettings(raw, sender)
	default:
		c.host.SendTo(sender.ID, NewError("unknown message type", true))
	}
}

func (c *WordChain) handleStart(sender *Player) {
	if c.host.Lifecycle() == StatePlaying {
		c.host.SendTo(sender.ID, NewError("a game is already running", false))
		return
	}
	if !c.host.Dictionary().Ready() {
		c.host.Broadcast(NewError("dictionary is still loading, try again shortly", false))
		return
	}
	seed, err := c.host.Dictionary().RandomWord(seedWordLength)
	if err != nil {
		slog.Error("seed word draw failed", "tag", "game", "err", err)
		c.host.Broadcast(NewError("could not draw a starting word", false))
		return
	}

	players := c.host.Players()
	ids := make([]string, 0, len(players))
	for _, p := range players {
		p.ResetGameState(c.cfg.StartLives)
		ids = append(ids, p.ID)
	}
	c.ring = NewTurnRing(ids)
	c.starters = len(ids)
	c.used = map[string]struct{}{seed: {}}
	c.lastTurns = make(map[string]LastTurn)
	c.chainWord = seed
	c.linkLetter = seed[len(seed)-1]
	c.host.SetLifecycle(StatePlaying)
	c.ticker.Start()
	c.startTurn()
}

func (c *WordChain) startTurn() {
	current := c.ring.Current()
	if current == "" {
		c.gameOver("")
		return
	}
	c.timer = c.cfg.TurnSeconds
	c.host.AntiCheat().BeginTurn(current)
	c.turnStart = time.Now()
	c.host.BroadcastState()
}

// minLength grows by one per round once the hard-mode start round is reached.
func (c *WordChain) minLength() int {
	min := c.cfg.BaseMinLength
	if c.cfg.HardModeStartRound > 0 && c.ring != nil && c.ring.Round() >= c.cfg.HardModeStartRound {
		min += c.ring.Round() - c.cfg.HardModeStartRound + 1
	}
	return min
}

func (c *WordChain) OnTick() {
	if c.host.Lifecycle() != StatePlaying {
		c.ticker.Stop()
		return
	}
	c.timer--
	if c.timer <= 0 {
		c.handleTimeout()
		return
	}
	c.host.Broadcast(map[string]interface{}{
		"type": "timer", "seconds": c.timer, "player": c.ring.Current(),
	})
}

func (c *WordChain) handleTimeout() {
	current := c.ring.Current()
	p, ok := c.host.Player(current)
	if !ok {
		c.checkWin()
		return
	}
	p.Lives--
	eliminated := p.Lives <= 0
	if eliminated {
		p.Alive = false
		c.ring.Remove(p.ID)
	} else {
		c.ring.Advance()
	}
	c.host.Broadcast(ExplosionMsg{
		Type: "explosion", Player: p.ID, LivesLeft: p.Lives, Eliminated: eliminated,
	})
	if c.checkWin() {
		return
	}
	c.startTurn()
}

func (c *WordChain) handleWord(sender *Player, word string) {
	if c.host.Lifecycle() != StatePlaying {
		c.host.SendTo(sender.ID, NewError("no game in progress", false))
		return
	}
	if sender.ID != c.ring.Current() {
		c.host.SendTo(sender.ID, NewError("not your turn", false))
		return
	}
	word = strings.ToUpper(strings.TrimSpace(word))
	if word == "" {
		return
	}
	if err := c.host.AntiCheat().Validate(sender.ID, c.turnStart); err != nil {
		slog.Info("submission failed anti-cheat", "tag", "game", "player", sender.Name, "err", err)
		c.host.SendTo(sender.ID, NewError("submission rejected", true))
		return
	}
	// Chain-link failures are broadcast so everyone sees the broken chain.
	if word[0] != c.linkLetter {
		c.host.Broadcast(NewError(sender.Name+": word must start with "+string(c.linkLetter), false))
		return
	}
	if len(word) < c.minLength() {
		c.host.Broadcast(NewError(sender.Name+": word is shorter than the minimum length", false))
		return
	}
	if _, dup := c.used[word]; dup {
		c.host.Broadcast(NewError(sender.Name+": word already used", false))
		return
	}
	if err := c.host.Dictionary().Check(word, ""); err != nil {
		if errors.Is(err, dictionary.ErrUnknownWord) {
			c.host.Broadcast(NewError(sender.Name+": not in the dictionary", false))
			return
		}
		c.host.Broadcast(NewError("dictionary unavailable, ending the round", false))
		c.gameOver("")
		return
	}

	c.used[word] = struct{}{}
	c.chainWord = word
	c.linkLetter = word[len(word)-1]
	c.lastTurns[sender.ID] = LastTurn{Word: word, LinkLetter: string(c.linkLetter)}
	c.host.Broadcast(WordAcceptedMsg{Type: "word_accepted", Player: sender.ID, Word: word})
	c.ring.Advance()
	c.startTurn()
}

// checkWin: with more than one starting player the game ends when exactly
// one remains; a solo run continues until that player is eliminated.
func (c *WordChain) checkWin() bool {
	if c.host.Lifecycle() != StatePlaying {
		return true
	}
	switch {
	case c.ring.Len() == 0:
		c.gameOver("")
		return true
	case c.ring.Len() == 1 && c.starters > 1:
		winnerID := c.ring.Current()
		if p, ok := c.host.Player(winnerID); ok {
			p.Wins++
		}
		c.gameOver(winnerID)
		return true
	}
	return false
}

func (c *WordChain) gameOver(winnerID string) {
	c.ticker.Stop()
	c.host.SetLifecycle(StateEnded)
	c.host.Broadcast(GameOverMsg{Type: "game_over", Winner: winnerID})
	c.host.BroadcastState()
}

func (c *WordChain) backToLobby() {
	c.ticker.Stop()
	c.ring = nil
	c.chainWord = ""
	c.host.SetLifecycle(StateLobby)
	c.host.BroadcastState()
}

func (c *WordChain) OnPlayerJoin(p *Player) {
	if c.host.Lifecycle() == StatePlaying {
		p.Alive = false
		return
	}
	p.Alive = true
}

func (c *WordChain) OnPlayerLeave(id string) {
	if c.ring == nil || !c.ring.Contains(id) {
		return
	}
	wasCurrent := c.ring.Remove(id)
	if c.checkWin() {
		return
	}
	if c.host.Lifecycle() == StatePlaying && wasCurrent {
		c.startTurn()
	}
}

func (c *WordChain) handleSettings(raw json.RawMessage, sender *Player) {
	if !sender.Admin {
		c.host.SendTo(sender.ID, NewError("only the admin can change settings", false))
		return
	}
	var msg SettingsMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	for key, value := range msg.Settings {
		switch key {
		case "turnSeconds":
			if v, ok := intSetting(value, 5, 120); ok {
				c.cfg.TurnSeconds = v
			}
		case "startLives":
			if v, ok := intSetting(value, 1, 5); ok {
				c.cfg.StartLives = v
			}
		case "baseMinLength":
			if v, ok := intSetting(value, 2, 6); ok {
				c.cfg.BaseMinLength = v
			}
		case "hardModeStartRound":
			if v, ok := intSetting(value, 0, 20); ok {
				c.cfg.HardModeStartRound = v
			}
		case "chatEnabled":
			if v, ok := boolSetting(value); ok {
				c.SetChatEnabled(v)
			}
		case "logEnabled":
			if v, ok := boolSetting(value); ok {
				c.SetLogEnabled(v)
			}
		}
	}
	c.host.BroadcastState()
}

func (c *WordChain) State() map[string]interface{} {
	state := map[string]interface{}{
		"chainWord":   c.chainWord,
		"minLength":   c.cfg.BaseMinLength,
		"timer":       c.timer,
		"lastTurns":   c.lastTurns,
		"chatEnabled": c.ChatEnabled(),
		"logEnabled":  c.LogEnabled(),
	}
	if c.linkLetter != 0 {
		state["linkLetter"] = string(c.linkLetter)
	}
	if c.ring != nil {
		state["currentPlayer"] = c.ring.Current()
		state["round"] = c.ring.Round()
		state["minLength"] = c.minLength()
	}
	return state
}
