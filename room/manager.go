package room

import (
	"context"
	"log/slog"
	"sync"

	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/game"
	"wordroom-server/lobby"
	"wordroom-server/storage"
)

// Manager owns the set of live rooms. Rooms are created on first join and
// kept for the process lifetime; an emptied room resets itself in place
// rather than being torn down, so reconnecting players land in a blank
// room under the same id.
type Manager struct {
	cfg      *config.Config
	dict     *dictionary.Resource
	factory  *game.Factory
	settings storage.SettingsStore
	registry *lobby.Registry

	mu    sync.Mutex
	rooms map[string]*Room
	once  sync.Once
}

func NewManager(cfg *config.Config, dict *dictionary.Resource, factory *game.Factory,
	settings storage.SettingsStore, registry *lobby.Registry) *Manager {
	return &Manager{
		cfg:      cfg,
		dict:     dict,
		factory:  factory,
		settings: settings,
		registry: registry,
		rooms:    make(map[string]*Room),
	}
}

// Get returns the room with the given id, creating it if needed. The first
// room created kicks off the dictionary load in the background so the
// process only pays for it when someone actually plays.
func (m *Manager) Get(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	m.once.Do(func() {
		go func() {
			if err := m.dict.Load(context.Background()); err != nil {
				slog.Error("dictionary load failed", "tag", "manager", "err", err)
			}
		}()
	})
	r := New(id, m.cfg, m.dict, m.factory, m.settings, m.registry)
	m.rooms[id] = r
	go r.Run()
	slog.Info("room created", "tag", "manager", "room", id)
	return r
}

// Lookup returns an existing room without creating one.
func (m *Manager) Lookup(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Shutdown stops every room actor.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.Shutdown()
	}
}
