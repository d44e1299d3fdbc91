package game

import (
	"encoding/json"

	"wordroom-server/anticheat"
	"wordroom-server/config"
	"wordroom-server/dictionary"
)

// Lifecycle is the room's session state. It cycles
// LOBBY → COUNTDOWN → PLAYING → ENDED and back.
type Lifecycle int

const (
	StateLobby Lifecycle = iota
	StateCountdown
	StatePlaying
	StateEnded
)

// String returns the protocol string for a Lifecycle.
func (s Lifecycle) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateCountdown:
		return "countdown"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Host is what a game variant needs from the room that runs it. The room
// owns the roster, lifecycle, and broadcast plumbing; variants reach them
// only through this interface. All Host methods must be called from the
// room actor; callbacks arriving from other goroutines (timers) reenter
// through Post.
type Host interface {
	// Broadcast fire-and-forget sends a message to every connection.
	Broadcast(v interface{})
	// SendTo sends a message to one player, dropped if unknown or backed up.
	SendTo(playerID string, v interface{})
	// BroadcastState sends the full state snapshot, including the active
	// variant's State() fields, to everyone.
	BroadcastState()

	// Players returns the roster in join order. Player looks one up by id.
	Players() []*Player
	Player(id string) (*Player, bool)

	Lifecycle() Lifecycle
	SetLifecycle(s Lifecycle)

	Dictionary() *dictionary.Resource
	AntiCheat() *anticheat.Gate
	Config() *config.Config

	// Post enqueues fn onto the room actor. Every tick callback goes
	// through here so game code never runs concurrently with message
	// handling.
	Post(fn func())
}

// Machine is the contract every game variant implements. All methods are
// invoked from the room actor, never concurrently.
type Machine interface {
	// OnStart is invoked once right after construction.
	OnStart()
	// OnTick runs once per scheduler tick while the variant's ticker is active.
	OnTick()
	// OnMessage receives every inbound message the room did not handle itself.
	OnMessage(raw json.RawMessage, sender *Player)
	// OnPlayerJoin is notified after the room added the player to the roster.
	OnPlayerJoin(p *Player)
	// OnPlayerLeave is notified after the room removed the player.
	OnPlayerLeave(id string)
	// Dispose stops timers and releases resources. The machine is not used again.
	Dispose()
	// State returns a plain snapshot merged into the room's state broadcast.
	State() map[string]interface{}

	ChatEnabled() bool
	LogEnabled() bool
	SetChatEnabled(on bool)
	SetLogEnabled(on bool)
}

// Flags holds the two feature toggles every variant carries. Embed it to
// satisfy the flag portion of the Machine contract.
type Flags struct {
	chat bool
	log  bool
}

// NewFlags returns flags with both features on.
func NewFlags() Flags { return Flags{chat: true, log: true} }

func (f *Flags) ChatEnabled() bool      { return f.chat }
func (f *Flags) LogEnabled() bool       { return f.log }
func (f *Flags) SetChatEnabled(on bool) { f.chat = on }
func (f *Flags) SetLogEnabled(on bool)  { f.log = on }
