package domain

import "encoding/json"

// CallRequest exists only for the duration of one relay operation.
// Signal is an opaque connection-setup descriptor; the server never
// inspects its contents.
type CallRequest struct {
	CallerUserID   UserID
	CallerName     string
	ReceiverUserID UserID
	AudioOnly      bool
	Signal         json.RawMessage
}

type CallEventKind string

const (
	CallEventJoinedRoom CallEventKind = "joined"
	CallEventLeftRoom   CallEventKind = "left"
	CallEventAccepted   CallEventKind = "accepted"
	CallEventRejected   CallEventKind = "rejected"
)

// CallEvent is the payload of the fire-and-forget history hook.
type CallEvent struct {
	Kind     CallEventKind
	UserID   UserID
	Username string
}
