package game

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wordroom-server/anticheat"
	"wordroom-server/config"
	"wordroom-server/dictionary"
)

// fakeHost is a synchronous, in-memory Host for exercising game variants
// without a room or any websocket plumbing.
type fakeHost struct {
	players   map[string]*Player
	order     []string
	lifecycle Lifecycle
	dict      *dictionary.Resource
	gate      *anticheat.Gate
	cfg       *config.Config

	broadcasts []interface{}
	sent       map[string][]interface{}
	stateCount int
}

func newFakeHost(t *testing.T, words []string, playerIDs ...string) *fakeHost {
	t.Helper()
	cfg := config.Defaults()
	// Reaction-time and keystroke checks are off unless a test opts in.
	cfg.AntiCheat = config.AntiCheatConfig{}
	h := &fakeHost{
		players: make(map[string]*Player),
		dict:    loadDict(t, words),
		gate:    anticheat.New(cfg.AntiCheat),
		cfg:     cfg,
		sent:    make(map[string][]interface{}),
	}
	for _, id := range playerIDs {
		p := NewPlayer(id, "player "+id, make(chan []byte, 16))
		p.Alive = true
		h.players[id] = p
		h.order = append(h.order, id)
	}
	if len(h.order) > 0 {
		h.players[h.order[0]].Admin = true
	}
	return h
}

func loadDict(t *testing.T, words []string) *dictionary.Resource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(strings.Join(words, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	d := dictionary.New(path, 1)
	if err := d.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return d
}

func (h *fakeHost) Broadcast(v interface{}) { h.broadcasts = append(h.broadcasts, v) }

func (h *fakeHost) SendTo(playerID string, v interface{}) {
	h.sent[playerID] = append(h.sent[playerID], v)
}

func (h *fakeHost) BroadcastState() { h.stateCount++ }

func (h *fakeHost) Players() []*Player {
	players := make([]*Player, 0, len(h.order))
	for _, id := range h.order {
		players = append(players, h.players[id])
	}
	return players
}

func (h *fakeHost) Player(id string) (*Player, bool) {
	p, ok := h.players[id]
	return p, ok
}

func (h *fakeHost) Lifecycle() Lifecycle             { return h.lifecycle }
func (h *fakeHost) SetLifecycle(s Lifecycle)         { h.lifecycle = s }
func (h *fakeHost) Dictionary() *dictionary.Resource { return h.dict }
func (h *fakeHost) AntiCheat() *anticheat.Gate       { return h.gate }
func (h *fakeHost) Config() *config.Config           { return h.cfg }
func (h *fakeHost) Post(fn func())                   { fn() }

// lastBroadcastError returns the reason of the most recent ErrorMsg
// broadcast, or "".
func (h *fakeHost) lastBroadcastError() string {
	for i := len(h.broadcasts) - 1; i >= 0; i-- {
		if e, ok := h.broadcasts[i].(ErrorMsg); ok {
			return e.Reason
		}
	}
	return ""
}
