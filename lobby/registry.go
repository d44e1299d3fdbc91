package lobby

import (
	"sort"
	"sync"
	"time"
)

// Description is the directory entry a room reports about itself.
type Description struct {
	ID          string `json:"id"`
	Players     int    `json:"players"`
	HasPassword bool   `json:"hasPassword"`
	Mode        string `json:"mode"`
}

type entry struct {
	desc       Description
	reportedAt time.Time
}

// Registry is the room directory: a TTL cache of the latest description
// each room reported. Reporting is a best-effort side channel, never a
// correctness dependency, so Report cannot fail and Remove is optional —
// an entry that stops being refreshed simply expires.
//
// Unlike room state, the registry is shared across rooms and needs its
// own locking.
type Registry struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry

	now func() time.Time // injected in tests
}

// NewRegistry creates a Registry with the given entry lifetime.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Report upserts a room's directory entry and refreshes its TTL.
func (r *Registry) Report(desc Description) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[desc.ID] = entry{desc: desc, reportedAt: r.now()}
}

// Remove drops a room's entry, used when a room empties out.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, roomID)
}

// Snapshot returns all live entries sorted by room id, pruning expired ones.
func (r *Registry) Snapshot() []Description {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	descs := make([]Description, 0, len(r.entries))
	for id, e := range r.entries {
		if e.reportedAt.Before(cutoff) {
			delete(r.entries, id)
			continue
		}
		descs = append(descs, e.desc)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].ID < descs[j].ID })
	return descs
}

// Status returns a single room's live entry, if present.
func (r *Registry) Status(roomID string) (Description, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[roomID]
	if !ok || e.reportedAt.Before(r.now().Add(-r.ttl)) {
		return Description{}, false
	}
	return e.desc, true
}
