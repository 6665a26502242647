package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
)

func (ctl *SignalWSController) handleConnInit(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type                 string `json:"type"`
		ConnUserConnectionID string `json:"connUserConnectionId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConnUserConnectionID == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad conn-init payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Relay.InitConnection(connID, core.ConnectionID(p.ConnUserConnectionID))
}

func (ctl *SignalWSController) handleConnSignal(connID core.ConnectionID, conn *wsConn, data []byte) {
	var p struct {
		Type                 string          `json:"type"`
		ConnUserConnectionID string          `json:"connUserConnectionId"`
		Signal               json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConnUserConnectionID == "" || len(p.Signal) == 0 {
		log.Error().Err(err).Str("module", "signal").Msg("bad conn-signal payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.Relay.ForwardSignal(connID, core.ConnectionID(p.ConnUserConnectionID), p.Signal)
}
