package app

import (
	"encoding/json"

	"github.com/huddlechat/huddle/internal/domain"
)

// Server-to-client event names. Client-to-server names live with the
// transport adapter that dispatches them.
const (
	EventOnlineUsers        = "online-users"
	EventActiveRooms        = "active-rooms"
	EventActiveRoomsInitial = "active-rooms-initial"
	EventRoomCreate         = "room-create"
	EventConnPrepare        = "conn-prepare"
	EventConnInit           = "conn-init"
	EventConnSignal         = "conn-signal"
	EventParticipantLeft    = "room-participant-left"
	EventCallRequest        = "call-request"
	EventCallResponse       = "call-response"
	EventNotifyChatLeft     = "notify-chat-left"
	EventError              = "error"
)

type OnlineUsersEvent struct {
	Type        string          `json:"type"`
	OnlineUsers []domain.UserID `json:"onlineUsers"`
}

type ActiveRoomsEvent struct {
	Type        string        `json:"type"`
	ActiveRooms []domain.Room `json:"activeRooms"`
}

type RoomCreateEvent struct {
	Type string      `json:"type"`
	Room domain.Room `json:"roomDetails"`
}

// ConnEvent covers conn-prepare, conn-init and room-participant-left:
// each carries only the connection id the receiver should associate
// the event with.
type ConnEvent struct {
	Type                 string `json:"type"`
	ConnUserConnectionID string `json:"connUserConnectionId"`
}

type ConnSignalEvent struct {
	Type                 string          `json:"type"`
	ConnUserConnectionID string          `json:"connUserConnectionId"`
	Signal               json.RawMessage `json:"signal"`
}

type CallRequestEvent struct {
	Type         string          `json:"type"`
	CallerUserID domain.UserID   `json:"callerUserId"`
	CallerName   string          `json:"callerName"`
	AudioOnly    bool            `json:"audioOnly"`
	Signal       json.RawMessage `json:"signal"`
}

type CallResponseEvent struct {
	Type        string          `json:"type"`
	OtherUserID domain.UserID   `json:"otherUserId"`
	Accepted    bool            `json:"accepted"`
	Signal      json.RawMessage `json:"signal,omitempty"`
}

type NotifyChatLeftEvent struct {
	Type string `json:"type"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"error"`
}
