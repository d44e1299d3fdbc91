package storage

import "context"

// SettingsStore persists per-room settings that must survive a room's cold
// start — today only the resolved game mode. The mode is written once when
// first resolved and cleared when the room is fully vacated.
// Implementations can be swapped for testing or when no database is
// configured.
type SettingsStore interface {
	GetMode(ctx context.Context, roomID string) (string, error)
	SetMode(ctx context.Context, roomID, mode string) error
	ClearRoom(ctx context.Context, roomID string) error
	Close()
}

// Compile-time checks.
var (
	_ SettingsStore = (*PostgresStore)(nil)
	_ SettingsStore = (*MemoryStore)(nil)
)
