package storage

import (
	"context"
	"sync"
)

// MemoryStore is the fallback SettingsStore when no database is
// configured. Settings survive room vacancy cycles within the process
// but not a process restart.
type MemoryStore struct {
	mu    sync.Mutex
	modes map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{modes: make(map[string]string)}
}

func (s *MemoryStore) GetMode(_ context.Context, roomID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[roomID], nil
}

func (s *MemoryStore) SetMode(_ context.Context, roomID, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[roomID] = mode
	return nil
}

func (s *MemoryStore) ClearRoom(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modes, roomID)
	return nil
}

func (s *MemoryStore) Close() {}
