package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

type sessionEntry struct {
	User domain.User
	Conn core.SignalConnection
}

// Registry maps live connection ids to their owning identity and
// transport endpoint. One entry per connection; a user may own many.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnectionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.ConnectionID]*sessionEntry)}
}

// Register inserts the mapping. Registering the same connection id
// twice overwrites harmlessly.
func (r *Registry) Register(id core.ConnectionID, user domain.User, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &sessionEntry{User: user, Conn: conn}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(user.ID)).Msg("session registered")
}

// Unregister removes the mapping if present. Disconnect after
// disconnect is tolerated.
func (r *Registry) Unregister(id core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("session unregistered")
}

func (r *Registry) User(id core.ConnectionID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.User, true
	}
	return domain.User{}, false
}

func (r *Registry) Conn(id core.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

// ActiveConnections returns every live connection of one user. An
// empty result means "cannot reach user now", not an error.
func (r *Registry) ActiveConnections(userID domain.UserID) []core.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.ConnectionID
	for id, e := range r.sessions {
		if e.User.ID == userID {
			out = append(out, id)
		}
	}
	return out
}

// OnlineUsers returns the distinct set of users with at least one
// live connection.
func (r *Registry) OnlineUsers() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[domain.UserID]struct{}, len(r.sessions))
	out := make([]domain.UserID, 0, len(r.sessions))
	for _, e := range r.sessions {
		if _, ok := seen[e.User.ID]; ok {
			continue
		}
		seen[e.User.ID] = struct{}{}
		out = append(out, e.User.ID)
	}
	return out
}

type connSnap struct {
	ID   core.ConnectionID
	Conn core.SignalConnection
}

// snapshot copies the live connection set so broadcasts never iterate
// a mutating map.
func (r *Registry) snapshot() []connSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connSnap, 0, len(r.sessions))
	for id, e := range r.sessions {
		out = append(out, connSnap{ID: id, Conn: e.Conn})
	}
	return out
}

func (r *Registry) connsOf(userID domain.UserID) []connSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []connSnap
	for id, e := range r.sessions {
		if e.User.ID == userID {
			out = append(out, connSnap{ID: id, Conn: e.Conn})
		}
	}
	return out
}
