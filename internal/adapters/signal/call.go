package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

func (ctl *SignalWSController) handleCallRequest(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type           string          `json:"type"`
		ReceiverUserID string          `json:"receiverUserId"`
		CallerName     string          `json:"callerName"`
		AudioOnly      bool            `json:"audioOnly"`
		Signal         json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverUserID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad call-request payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	caller, ok := ctl.Registry.User(connID)
	if !ok {
		ctl.sendError(conn, "unknown session")
		return
	}

	ctl.Calls.Request(domain.CallRequest{
		CallerUserID:   caller.ID,
		CallerName:     p.CallerName,
		ReceiverUserID: domain.UserID(p.ReceiverUserID),
		AudioOnly:      p.AudioOnly,
		Signal:         p.Signal,
	})
}

func (ctl *SignalWSController) handleCallResponse(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type           string          `json:"type"`
		ReceiverUserID string          `json:"receiverUserId"`
		Accepted       *bool           `json:"accepted"`
		Signal         json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverUserID == "" || p.Accepted == nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call-response payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	responder, ok := ctl.Registry.User(connID)
	if !ok {
		ctl.sendError(conn, "unknown session")
		return
	}

	// receiverUserId here is the original caller.
	ctl.Calls.Respond(responder, domain.UserID(p.ReceiverUserID), *p.Accepted, p.Signal)
}

func (ctl *SignalWSController) handleNotifyChatLeft(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type           string `json:"type"`
		ReceiverUserID string `json:"receiverUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverUserID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad notify-chat-left payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Calls.NotifyChatLeft(domain.UserID(p.ReceiverUserID))
}
