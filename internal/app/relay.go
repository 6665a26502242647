package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

// Relay brokers the multi-party handshake of a room: it tells existing
// participants to prepare for a joiner, relays connection-setup
// descriptors point-to-point, and tears down peer state on leave.
// Signal payloads pass through verbatim; the relay never parses them.
// Delivery is best-effort, at-most-once.
type Relay struct {
	Rooms     *RoomStore
	Broadcast core.Broadcaster
	History   *History
}

func NewRelay(rooms *RoomStore, bc core.Broadcaster, history *History) *Relay {
	return &Relay{Rooms: rooms, Broadcast: bc, History: history}
}

// CreateRoom opens a room with the creator as sole participant. A
// session is in at most one room, so creating while still in one
// evicts it from the old room first.
func (r *Relay) CreateRoom(creator domain.Participant) (domain.Room, error) {
	r.Disconnect(core.ConnectionID(creator.ConnectionID))
	room, err := r.Rooms.CreateRoom(creator)
	if err != nil {
		return domain.Room{}, err
	}
	r.History.Submit(domain.CallEvent{Kind: domain.CallEventJoinedRoom, UserID: creator.UserID, Username: creator.Username})
	return room, nil
}

// Join admits the participant and tells every existing participant to
// prepare for the incoming handshake that the joiner will answer. A
// join the store refuses or treats as a repeat admits nothing, so no
// prepare fan-out and no history entry happen for it. The bool
// reports whether the participant was newly admitted.
func (r *Relay) Join(roomID domain.RoomID, p domain.Participant) (domain.Room, bool, error) {
	room, admitted, err := r.Rooms.JoinRoom(roomID, p)
	if err != nil {
		return domain.Room{}, false, err
	}
	if !admitted {
		return room, false, nil
	}
	for _, other := range room.Participants {
		if other.ConnectionID == p.ConnectionID {
			continue
		}
		r.Broadcast.SendToConnection(core.ConnectionID(other.ConnectionID), ConnEvent{
			Type:                 EventConnPrepare,
			ConnUserConnectionID: p.ConnectionID,
		})
	}
	r.History.Submit(domain.CallEvent{Kind: domain.CallEventJoinedRoom, UserID: p.UserID, Username: p.Username})
	return room, true, nil
}

// Leave removes the participant and notifies the rest of the room so
// they can drop their corresponding peer state.
func (r *Relay) Leave(roomID domain.RoomID, connID core.ConnectionID) bool {
	left, room, ok := r.Rooms.LeaveRoom(roomID, connID)
	if !ok {
		return false
	}
	r.notifyLeft(room, connID)
	r.History.Submit(domain.CallEvent{Kind: domain.CallEventLeftRoom, UserID: left.UserID, Username: left.Username})
	return true
}

// Disconnect evicts the connection from whatever room it is in.
// Absence from every room is the common case and not an error.
func (r *Relay) Disconnect(connID core.ConnectionID) {
	left, room, ok := r.Rooms.LeaveAllRooms(connID)
	if !ok {
		return
	}
	r.notifyLeft(room, connID)
	r.History.Submit(domain.CallEvent{Kind: domain.CallEventLeftRoom, UserID: left.UserID, Username: left.Username})
}

func (r *Relay) notifyLeft(room domain.Room, connID core.ConnectionID) {
	for _, p := range room.Participants {
		r.Broadcast.SendToConnection(core.ConnectionID(p.ConnectionID), ConnEvent{
			Type:                 EventParticipantLeft,
			ConnUserConnectionID: string(connID),
		})
	}
}

// InitConnection relays "I am starting the handshake with you" from a
// prepared participant to the joiner, point-to-point.
func (r *Relay) InitConnection(from, target core.ConnectionID) {
	r.Broadcast.SendToConnection(target, ConnEvent{
		Type:                 EventConnInit,
		ConnUserConnectionID: string(from),
	})
}

// ForwardSignal relays an opaque connection-setup descriptor to one
// specific connection. A gone target drops the message silently.
func (r *Relay) ForwardSignal(from, target core.ConnectionID, signal json.RawMessage) {
	r.Broadcast.SendToConnection(target, ConnSignalEvent{
		Type:                 EventConnSignal,
		ConnUserConnectionID: string(from),
		Signal:               signal,
	})
	log.Debug().Str("module", "app.relay").Str("from", string(from)).Str("to", string(target)).Msg("signal relayed")
}
