package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

// RegistryBroadcaster fans payloads out over the live connections the
// Registry tracks. An unreachable or backpressured target is dropped
// without surfacing an error to the sender.
type RegistryBroadcaster struct {
	Registry *Registry
}

func NewBroadcaster(reg *Registry) *RegistryBroadcaster {
	return &RegistryBroadcaster{Registry: reg}
}

func (b *RegistryBroadcaster) SendToConnection(id core.ConnectionID, v any) {
	conn, ok := b.Registry.Conn(id)
	if !ok {
		log.Debug().Str("module", "app.broadcast").Str("conn", string(id)).Msg("target gone, dropped")
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("marshal payload")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Debug().Err(err).Str("module", "app.broadcast").Str("conn", string(id)).Msg("send dropped")
	}
}

func (b *RegistryBroadcaster) SendToUser(userID domain.UserID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("marshal payload")
		return
	}
	for _, snap := range b.Registry.connsOf(userID) {
		if err := snap.Conn.TrySend(data); err != nil {
			log.Debug().Err(err).Str("module", "app.broadcast").Str("conn", string(snap.ID)).Msg("send dropped")
		}
	}
}

func (b *RegistryBroadcaster) SendToAll(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("marshal payload")
		return
	}
	for _, snap := range b.Registry.snapshot() {
		if err := snap.Conn.TrySend(data); err != nil {
			log.Debug().Err(err).Str("module", "app.broadcast").Str("conn", string(snap.ID)).Msg("send dropped")
		}
	}
}
