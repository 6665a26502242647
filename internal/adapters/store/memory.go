package store

import (
	"context"
	"sync"

	"github.com/huddlechat/huddle/internal/domain"
)

// MemoryDirectory is the in-process Directory used when no database
// is configured, and by tests.
type MemoryDirectory struct {
	mu      sync.RWMutex
	users   map[domain.UserID]domain.User
	friends map[domain.UserID]map[domain.UserID]struct{}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users:   make(map[domain.UserID]domain.User),
		friends: make(map[domain.UserID]map[domain.UserID]struct{}),
	}
}

func (d *MemoryDirectory) AddUser(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// Befriend links both directions, like the friend graph it stands in
// for.
func (d *MemoryDirectory) Befriend(a, b domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.friends[a] == nil {
		d.friends[a] = make(map[domain.UserID]struct{})
	}
	if d.friends[b] == nil {
		d.friends[b] = make(map[domain.UserID]struct{})
	}
	d.friends[a][b] = struct{}{}
	d.friends[b][a] = struct{}{}
}

func (d *MemoryDirectory) Lookup(_ context.Context, id domain.UserID) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return domain.User{}, ErrUserNotFound
}

func (d *MemoryDirectory) FriendIDs(_ context.Context, id domain.UserID) (map[domain.UserID]struct{}, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[domain.UserID]struct{}, len(d.friends[id]))
	for f := range d.friends[id] {
		out[f] = struct{}{}
	}
	return out, nil
}

// MemoryHistory collects call events in memory.
type MemoryHistory struct {
	mu     sync.Mutex
	events []domain.CallEvent
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) LogCallEvent(_ context.Context, ev domain.CallEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func (h *MemoryHistory) Events() []domain.CallEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.CallEvent, len(h.events))
	copy(out, h.events)
	return out
}
