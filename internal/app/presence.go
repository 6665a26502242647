package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

// Presence pushes online-user and active-room state to clients.
// Announcements after connect/disconnect and room mutations go to
// every connected session; only the one-shot list at connect time is
// visibility-filtered.
type Presence struct {
	Registry  *Registry
	Rooms     *RoomStore
	Broadcast core.Broadcaster
	Directory core.Directory
}

func NewPresence(reg *Registry, rooms *RoomStore, bc core.Broadcaster, dir core.Directory) *Presence {
	return &Presence{Registry: reg, Rooms: rooms, Broadcast: bc, Directory: dir}
}

// AnnouncePresence recomputes the online-user set and delivers it to
// every connected session.
func (p *Presence) AnnouncePresence() {
	online := p.Registry.OnlineUsers()
	p.Broadcast.SendToAll(OnlineUsersEvent{Type: EventOnlineUsers, OnlineUsers: online})
	log.Debug().Str("module", "app.presence").Int("online", len(online)).Msg("presence announced")
}

// AnnounceRoomsGlobal delivers the full active-room list to every
// connected session. Used after any room mutation.
func (p *Presence) AnnounceRoomsGlobal() {
	p.Broadcast.SendToAll(ActiveRoomsEvent{Type: EventActiveRooms, ActiveRooms: p.Rooms.Rooms()})
}

// AnnounceRoomsTo sends one newly connected session the rooms it is
// allowed to see: those created by the user or by a friend. A failing
// friend lookup degrades to own-rooms-only rather than failing the
// connection.
func (p *Presence) AnnounceRoomsTo(ctx context.Context, connID core.ConnectionID, userID domain.UserID) {
	friends, err := p.Directory.FriendIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Str("user", string(userID)).Msg("friend lookup failed, sending own rooms only")
		friends = nil
	}
	visible := p.Rooms.RoomsVisibleTo(userID, friends)
	p.Broadcast.SendToConnection(connID, ActiveRoomsEvent{Type: EventActiveRoomsInitial, ActiveRooms: visible})
}
