package domain

type RoomID string

// Participant represents one session's membership in a room.
// No transport or lifecycle logic here.
type Participant struct {
	UserID       UserID `json:"userId"`
	Username     string `json:"username"`
	ConnectionID string `json:"connectionId"`
}

// Room is an ephemeral multi-party call. Participants[0] is the
// creator at creation time; an empty participant list never outlives
// the mutation that produced it.
type Room struct {
	ID           RoomID        `json:"roomId"`
	Creator      Participant   `json:"roomCreator"`
	Participants []Participant `json:"participants"`
}
