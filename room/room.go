package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wordroom-server/anticheat"
	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/game"
	"wordroom-server/lobby"
	"wordroom-server/moderation"
	"wordroom-server/roomerrors"
	"wordroom-server/storage"
	"wordroom-server/wsutil"
)

// nameAttempts caps display-name collision resolution ("Bob (2)", "Bob (3)", ...).
const nameAttempts = 50

// storeTimeout bounds settings-store calls made from inside the actor.
const storeTimeout = 2 * time.Second

// Conn is the transport-side handle the hub passes in on connect. Close
// must be callable from the room actor.
type Conn struct {
	ID       string
	IP       string
	ClientID string // stable client id from auth, may be empty
	Send     chan []byte
	Close    func(code int, reason string)
}

// JoinRequest carries the connect parameters resolved from the upgrade request.
type JoinRequest struct {
	Conn     Conn
	Name     string
	Password string
	Mode     string
}

// Status is the answer to the room status endpoint.
type Status struct {
	HasPassword bool   `json:"hasPassword"`
	Players     int    `json:"players"`
	Mode        string `json:"mode"`
}

// Room is a single-threaded actor hosting one game session: every
// connection, message, and timer event runs to completion on the actor
// goroutine before the next one is processed, so room state needs no
// locking. Rooms share nothing with each other except the read-only
// dictionary.
type Room struct {
	ID string

	cfg      *config.Config
	dict     *dictionary.Resource
	factory  *game.Factory
	settings storage.SettingsStore
	registry *lobby.Registry

	ledger *moderation.Ledger
	chat   *moderation.ChatThrottle
	gate   *anticheat.Gate

	lifecycle game.Lifecycle
	mode      string
	password  string
	players   map[string]*game.Player
	order     []string // join order, for deterministic admin promotion
	conns     map[string]Conn
	machine   game.Machine

	inbox chan func()
	done  chan struct{}
}

// New creates a Room. Run must be started on its own goroutine.
func New(id string, cfg *config.Config, dict *dictionary.Resource, factory *game.Factory,
	settings storage.SettingsStore, registry *lobby.Registry) *Room {
	return &Room{
		ID:       id,
		cfg:      cfg,
		dict:     dict,
		factory:  factory,
		settings: settings,
		registry: registry,
		ledger:   moderation.NewLedger(cfg.Moderation),
		chat:     moderation.NewChatThrottle(cfg.Moderation),
		gate:     anticheat.New(cfg.AntiCheat),
		players:  make(map[string]*game.Player),
		conns:    make(map[string]Conn),
		inbox:    make(chan func(), 256),
		done:     make(chan struct{}),
	}
}

// Run is the actor loop. It processes posted events sequentially until
// Shutdown is called.
func (r *Room) Run() {
	for {
		select {
		case fn := <-r.inbox:
			r.safely(fn)
		case <-r.done:
			return
		}
	}
}

// safely keeps a panicking handler from killing the room actor.
func (r *Room) safely(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("room handler panicked", "tag", "room", "room", r.ID, "panic", rec)
		}
	}()
	fn()
}

// Shutdown stops the actor loop. Used on server teardown and in tests.
func (r *Room) Shutdown() {
	close(r.done)
}

// Post enqueues fn onto the actor. It is the only safe entry point from
// other goroutines, including timer callbacks.
func (r *Room) Post(fn func()) {
	select {
	case r.inbox <- fn:
	case <-r.done:
	}
}

// Join asks the actor to run the connect pipeline for req.
func (r *Room) Join(req JoinRequest) {
	r.Post(func() { r.handleJoin(req) })
}

// Leave asks the actor to run the disconnect pipeline.
func (r *Room) Leave(connID string) {
	r.Post(func() { r.handleLeave(connID) })
}

// HandleMessage asks the actor to dispatch one raw inbound message.
func (r *Room) HandleMessage(connID string, raw []byte) {
	r.Post(func() { r.handleMessage(connID, raw) })
}

// Status answers the room status endpoint through the actor.
func (r *Room) Status() Status {
	reply := make(chan Status, 1)
	r.Post(func() {
		reply <- Status{
			HasPassword: r.password != "",
			Players:     len(r.players),
			Mode:        r.mode,
		}
	})
	select {
	case s := <-reply:
		return s
	case <-r.done:
		return Status{}
	}
}

// --- connect ---

func (r *Room) handleJoin(req JoinRequest) {
	identity := moderation.Identity{IP: req.Conn.IP, ConnID: req.Conn.ID, ClientID: req.Conn.ClientID}

	if err := r.ledger.CheckConnect(identity); err != nil {
		reason := "banned"
		if errors.Is(err, roomerrors.ErrRateLimited) {
			reason = "rate limited"
		}
		slog.Info("connection rejected", "tag", "room", "room", r.ID, "ip", req.Conn.IP, "reason", reason)
		req.Conn.Close(CloseBanned, reason)
		return
	}

	if err := r.checkPassword(req); err != nil {
		if r.ledger.PasswordFailure(req.Conn.IP) {
			slog.Info("ip banned after repeated password failures", "tag", "room", "room", r.ID, "ip", req.Conn.IP)
		}
		req.Conn.Close(CloseInvalidPassword, "invalid password")
		return
	}

	if r.machine == nil {
		if err := r.resolveMode(req.Mode); err != nil {
			slog.Error("mode resolution failed", "tag", "room", "room", r.ID, "err", err)
			req.Conn.Close(CloseBanned, "room unavailable")
			return
		}
	}

	p := game.NewPlayer(req.Conn.ID, r.uniqueName(req.Name), req.Conn.Send)
	p.IP = req.Conn.IP
	p.ClientID = req.Conn.ClientID
	p.Alive = true
	if len(r.players) == 0 {
		p.Admin = true
	}
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	r.conns[p.ID] = req.Conn

	r.machine.OnPlayerJoin(p)

	r.Broadcast(game.NewSystem(p.Name + " joined the room"))
	r.BroadcastState()
	r.report()
}

// checkPassword applies the room's password gate. The first player into
// an empty room sets the password; empty means public. A correct password
// also clears the IP's failure counter.
func (r *Room) checkPassword(req JoinRequest) error {
	if len(r.players) == 0 {
		r.password = req.Password
		return nil
	}
	if r.password == "" {
		return nil
	}
	if req.Password != r.password {
		return roomerrors.ErrInvalidPassword
	}
	r.ledger.ClearPasswordFailures(req.Conn.IP)
	return nil
}

// resolveMode picks the room's game mode exactly once: persisted value
// first, then a valid requested mode, then the default — and persists the
// result for the room's next cold start.
func (r *Room) resolveMode(requested string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	mode := ""
	if persisted, err := r.settings.GetMode(ctx, r.ID); err != nil {
		slog.Warn("reading persisted mode failed", "tag", "room", "room", r.ID, "err", err)
	} else if persisted != "" && r.factory.Known(persisted) {
		mode = persisted
	}
	if mode == "" && requested != "" && r.factory.Known(requested) {
		mode = requested
	}
	if mode == "" {
		mode = game.DefaultMode
	}

	machine, err := r.factory.Create(mode, r)
	if err != nil {
		return err
	}
	r.mode = mode
	r.machine = machine
	if err := r.settings.SetMode(ctx, r.ID, mode); err != nil {
		slog.Warn("persisting mode failed", "tag", "room", "room", r.ID, "err", err)
	}
	return nil
}

// uniqueName resolves display-name collisions by appending " (n)",
// n starting at 2, with a bounded number of attempts.
func (r *Room) uniqueName(requested string) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = "Player"
	}
	if len(name) > r.cfg.MaxNameLength {
		name = name[:r.cfg.MaxNameLength]
	}
	if !r.nameTaken(name) {
		return name
	}
	for n := 2; n < 2+nameAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !r.nameTaken(candidate) {
			return candidate
		}
	}
	return fmt.Sprintf("%s (%d)", name, len(r.players)+2)
}

func (r *Room) nameTaken(name string) bool {
	for _, p := range r.players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// --- disconnect ---

func (r *Room) handleLeave(connID string) {
	p, ok := r.players[connID]
	if !ok {
		return
	}
	r.chat.Forget(connID)
	r.gate.Forget(connID)
	delete(r.players, connID)
	delete(r.conns, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.machine != nil {
		r.machine.OnPlayerLeave(connID)
	}

	if len(r.players) == 0 {
		r.reset()
		return
	}

	if p.Admin {
		next := r.players[r.order[0]]
		next.Admin = true
		r.Broadcast(game.NewSystem(next.Name + " is now the admin"))
	}
	r.Broadcast(game.NewSystem(p.Name + " left the room"))
	r.BroadcastState()
	r.report()
}

// reset returns a fully vacated room to its blank state. The moderation
// ledger intentionally survives: bans last for the room process.
func (r *Room) reset() {
	if r.machine != nil {
		r.machine.Dispose()
		r.machine = nil
	}
	r.lifecycle = game.StateLobby
	r.password = ""
	r.mode = ""

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := r.settings.ClearRoom(ctx, r.ID); err != nil {
		slog.Warn("clearing persisted settings failed", "tag", "room", "room", r.ID, "err", err)
	}
	r.registry.Remove(r.ID)
}

// --- message dispatch ---

func (r *Room) handleMessage(connID string, raw []byte) {
	sender, ok := r.players[connID]
	if !ok {
		return
	}
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("malformed message dropped", "tag", "room", "room", r.ID, "from", connID, "err", err)
		return
	}
	switch env.Type {
	case "chat":
		r.handleChat(sender, env.Raw)
	case "set_name":
		r.handleSetName(sender, env.Raw)
	case "kick":
		r.handleKick(sender, env.Raw)
	case "visibility":
		r.handleVisibility(sender, env.Raw)
	default:
		if r.machine == nil {
			r.SendTo(sender.ID, game.NewError("no game available", false))
			return
		}
		r.machine.OnMessage(env.Raw, sender)
	}
}

func (r *Room) handleChat(sender *game.Player, raw json.RawMessage) {
	if !r.chat.Allow(sender.ID) {
		r.SendTo(sender.ID, game.NewError("slow down", true))
		return
	}
	if r.machine != nil && !r.machine.ChatEnabled() {
		r.SendTo(sender.ID, game.NewError("chat is disabled", false))
		return
	}
	var msg ChatInMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	r.Broadcast(game.ChatMsg{Type: "chat", From: sender.ID, Text: text})
}

func (r *Room) handleSetName(sender *game.Player, raw json.RawMessage) {
	if !r.chat.Allow(sender.ID) {
		r.SendTo(sender.ID, game.NewError("slow down", true))
		return
	}
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" || len(name) > r.cfg.MaxNameLength {
		r.SendTo(sender.ID, game.NewError("invalid name", false))
		return
	}
	if name == sender.Name {
		return
	}
	old := sender.Name
	sender.Name = "" // free the old name before collision resolution
	sender.Name = r.uniqueName(name)
	r.Broadcast(game.NewSystem(old + " is now known as " + sender.Name))
	r.BroadcastState()
}

func (r *Room) handleKick(sender *game.Player, raw json.RawMessage) {
	if !sender.Admin {
		r.SendTo(sender.ID, game.NewError("only the admin can kick", false))
		return
	}
	var msg KickMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.PlayerID == sender.ID {
		r.SendTo(sender.ID, game.NewError("you cannot kick yourself", false))
		return
	}
	target, ok := r.players[msg.PlayerID]
	if !ok {
		r.SendTo(sender.ID, game.NewError("no such player", false))
		return
	}
	// Ban every identifier the target presented, then run the same
	// disconnect path a voluntary leave takes.
	r.ledger.Ban(moderation.Identity{IP: target.IP, ConnID: target.ID, ClientID: target.ClientID})
	slog.Info("player kicked", "tag", "room", "room", r.ID, "player", target.Name, "by", sender.Name)
	if conn, ok := r.conns[target.ID]; ok {
		conn.Close(CloseKicked, "kicked by admin")
	}
	r.handleLeave(target.ID)
}

func (r *Room) handleVisibility(sender *game.Player, raw json.RawMessage) {
	if !sender.Admin {
		r.SendTo(sender.ID, game.NewError("only the admin can change settings", false))
		return
	}
	if r.machine == nil {
		return
	}
	var msg VisibilityMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.ChatEnabled != nil {
		r.machine.SetChatEnabled(*msg.ChatEnabled)
	}
	if msg.LogEnabled != nil {
		r.machine.SetLogEnabled(*msg.LogEnabled)
	}
	r.BroadcastState()
}

// --- game.Host ---

func (r *Room) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling broadcast", "tag", "room", "room", r.ID, "err", err)
		return
	}
	for _, p := range r.players {
		wsutil.SafeSend(p.Send, data)
	}
}

func (r *Room) SendTo(playerID string, v interface{}) {
	p, ok := r.players[playerID]
	if !ok {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message", "tag", "room", "room", r.ID, "err", err)
		return
	}
	wsutil.SafeSend(p.Send, data)
}

// BroadcastState sends the full snapshot: lifecycle, roster, dictionary
// readiness, mode, with the active variant's State() fields merged in.
func (r *Room) BroadcastState() {
	state := map[string]interface{}{
		"type":      "state",
		"state":     r.lifecycle.String(),
		"mode":      r.mode,
		"dictReady": r.dict.Ready(),
		"players":   r.playerViews(),
	}
	if r.machine != nil {
		for k, v := range r.machine.State() {
			state[k] = v
		}
	}
	r.Broadcast(state)
	r.report()
}

func (r *Room) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		views = append(views, PlayerView{
			ID:      p.ID,
			Name:    p.Name,
			Admin:   p.Admin,
			Alive:   p.Alive,
			Lives:   p.Lives,
			Wins:    p.Wins,
			Letters: p.LetterList(),
		})
	}
	return views
}

func (r *Room) Players() []*game.Player {
	players := make([]*game.Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

func (r *Room) Player(id string) (*game.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Room) Lifecycle() game.Lifecycle     { return r.lifecycle }
func (r *Room) SetLifecycle(s game.Lifecycle) { r.lifecycle = s }

func (r *Room) Dictionary() *dictionary.Resource { return r.dict }
func (r *Room) AntiCheat() *anticheat.Gate       { return r.gate }
func (r *Room) Config() *config.Config           { return r.cfg }

// report pushes the room's directory entry to the lobby registry.
// Best-effort: the registry is a side channel, never a dependency.
func (r *Room) report() {
	if len(r.players) == 0 {
		return
	}
	r.registry.Report(lobby.Description{
		ID:          r.ID,
		Players:     len(r.players),
		HasPassword: r.password != "",
		Mode:        r.mode,
	})
}
