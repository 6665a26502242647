package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

// Calls coordinates direct 1:1 calls outside rooms. Ringing fans out
// to every live connection of the receiver so any open device can
// answer; responses are relayed back independently, with no
// server-side arbitration of which device wins. Input is assumed
// validated upstream (receiver exists, no self-call, no block).
type Calls struct {
	Broadcast core.Broadcaster
	History   *History
}

func NewCalls(bc core.Broadcaster, history *History) *Calls {
	return &Calls{Broadcast: bc, History: history}
}

// Request rings every live connection of the receiver.
func (c *Calls) Request(req domain.CallRequest) {
	c.Broadcast.SendToUser(req.ReceiverUserID, CallRequestEvent{
		Type:         EventCallRequest,
		CallerUserID: req.CallerUserID,
		CallerName:   req.CallerName,
		AudioOnly:    req.AudioOnly,
		Signal:       req.Signal,
	})
	log.Info().Str("module", "app.call").Str("caller", string(req.CallerUserID)).Str("receiver", string(req.ReceiverUserID)).Bool("audio_only", req.AudioOnly).Msg("call requested")
}

// Respond relays an accept or reject back to every live connection of
// the original caller. On accept the embedded signal completes the
// handshake.
func (c *Calls) Respond(responder domain.User, callerUserID domain.UserID, accepted bool, signal json.RawMessage) {
	c.Broadcast.SendToUser(callerUserID, CallResponseEvent{
		Type:        EventCallResponse,
		OtherUserID: responder.ID,
		Accepted:    accepted,
		Signal:      signal,
	})
	kind := domain.CallEventRejected
	if accepted {
		kind = domain.CallEventAccepted
	}
	c.History.Submit(domain.CallEvent{Kind: kind, UserID: responder.ID, Username: responder.Username})
	log.Info().Str("module", "app.call").Str("responder", string(responder.ID)).Str("caller", string(callerUserID)).Bool("accepted", accepted).Msg("call response relayed")
}

// NotifyChatLeft tells every live connection of the receiver that the
// sender closed the shared chat view.
func (c *Calls) NotifyChatLeft(receiverUserID domain.UserID) {
	c.Broadcast.SendToUser(receiverUserID, NotifyChatLeftEvent{Type: EventNotifyChatLeft})
}
