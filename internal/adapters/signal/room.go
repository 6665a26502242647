package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/app"
	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

func (ctl *SignalWSController) participant(connID core.ConnectionID) (domain.Participant, bool) {
	user, ok := ctl.Registry.User(connID)
	if !ok {
		return domain.Participant{}, false
	}
	return domain.Participant{
		UserID:       user.ID,
		Username:     user.Username,
		ConnectionID: string(connID),
	}, true
}

func (ctl *SignalWSController) handleRoomCreate(connID core.ConnectionID, conn *wsConn) {
	creator, ok := ctl.participant(connID)
	if !ok {
		ctl.sendError(conn, "unknown session")
		return
	}
	if !ctl.roomLimiter.Allow(creator.UserID) {
		log.Warn().Str("module", "signal").Str("user", string(creator.UserID)).Msg("room create rate limited")
		ctl.sendError(conn, "too many rooms, slow down")
		return
	}

	room, err := ctl.Relay.CreateRoom(creator)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("room create")
		ctl.sendError(conn, "failed to create room")
		return
	}
	ctl.sendJSON(conn, app.RoomCreateEvent{Type: app.EventRoomCreate, Room: room})
	ctl.Presence.AnnounceRoomsGlobal()
}

func (ctl *SignalWSController) handleRoomJoin(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad room-join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	joiner, ok := ctl.participant(connID)
	if !ok {
		ctl.sendError(conn, "unknown session")
		return
	}

	_, admitted, err := ctl.Relay.Join(domain.RoomID(p.RoomID), joiner)
	if err != nil {
		if errors.Is(err, app.ErrRoomNotFound) {
			log.Warn().Str("module", "signal").Str("room", p.RoomID).Msg("join: room not found")
			ctl.sendError(conn, "room not found")
			return
		}
		log.Error().Err(err).Str("module", "signal").Str("room", p.RoomID).Msg("join")
		ctl.sendError(conn, "failed to join room")
		return
	}
	if admitted {
		ctl.Presence.AnnounceRoomsGlobal()
	}
}

func (ctl *SignalWSController) handleRoomLeave(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad room-leave payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	// Absent room or participant is a silent no-op: the disconnect
	// path may have evicted this session already.
	ctl.Relay.Leave(domain.RoomID(p.RoomID), connID)
	ctl.Presence.AnnounceRoomsGlobal()
}
