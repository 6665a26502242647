package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddlechat/huddle/internal/adapters/store"
	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

type relayFixture struct {
	registry *Registry
	rooms    *RoomStore
	relay    *Relay
	history  *History
	sink     *store.MemoryHistory
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	reg := NewRegistry()
	rooms := NewRoomStore()
	sink := store.NewMemoryHistory()
	history := NewHistory(sink, 16)
	t.Cleanup(history.Close)
	return &relayFixture{
		registry: reg,
		rooms:    rooms,
		relay:    NewRelay(rooms, NewBroadcaster(reg), history),
		history:  history,
		sink:     sink,
	}
}

func (f *relayFixture) connect(t *testing.T, user, conn string) *fakeConn {
	t.Helper()
	c := &fakeConn{}
	f.registry.Register(core.ConnectionID(conn), domain.User{ID: domain.UserID(user), Username: user}, c)
	return c
}

func TestJoinNotifiesExistingParticipants(t *testing.T) {
	f := newRelayFixture(t)
	c1 := f.connect(t, "u1", "c1")
	c2 := f.connect(t, "u2", "c2")

	room, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)

	got, admitted, err := f.relay.Join(room.ID, participant("u2", "c2"))
	require.NoError(t, err)
	require.True(t, admitted)
	assert.Len(t, got.Participants, 2)

	prepares := c1.eventsOfType(t, EventConnPrepare)
	require.Len(t, prepares, 1)
	assert.Equal(t, "c2", prepares[0]["connUserConnectionId"])

	// The joiner itself is never told to prepare.
	assert.Empty(t, c2.eventsOfType(t, EventConnPrepare))
}

func TestJoinWhileInAnotherRoomSendsNoPrepare(t *testing.T) {
	f := newRelayFixture(t)
	f.connect(t, "u1", "c1")
	f.connect(t, "u2", "c2")
	c3 := f.connect(t, "u3", "c3")

	roomA, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)
	_, _, err = f.relay.Join(roomA.ID, participant("u2", "c2"))
	require.NoError(t, err)
	roomB, err := f.relay.CreateRoom(participant("u3", "c3"))
	require.NoError(t, err)

	// c2 is still in roomA, so roomB admits nothing and its members
	// must not start a handshake with c2.
	got, admitted, err := f.relay.Join(roomB.ID, participant("u2", "c2"))
	require.NoError(t, err)
	assert.False(t, admitted)
	assert.Len(t, got.Participants, 1)
	assert.Empty(t, c3.eventsOfType(t, EventConnPrepare))

	f.history.Close()
	joins := 0
	for _, e := range f.sink.Events() {
		if e.Kind == domain.CallEventJoinedRoom && e.UserID == "u2" {
			joins++
		}
	}
	assert.Equal(t, 1, joins, "the refused join must not be logged")
}

func TestRepeatJoinSendsNoSecondPrepare(t *testing.T) {
	f := newRelayFixture(t)
	c1 := f.connect(t, "u1", "c1")
	f.connect(t, "u2", "c2")

	room, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)
	_, admitted, err := f.relay.Join(room.ID, participant("u2", "c2"))
	require.NoError(t, err)
	require.True(t, admitted)
	_, admitted, err = f.relay.Join(room.ID, participant("u2", "c2"))
	require.NoError(t, err)
	assert.False(t, admitted)

	// The handshake already exists; a repeat join must not restart it.
	prepares := c1.eventsOfType(t, EventConnPrepare)
	require.Len(t, prepares, 1)

	f.history.Close()
	joins := 0
	for _, e := range f.sink.Events() {
		if e.Kind == domain.CallEventJoinedRoom && e.UserID == "u2" {
			joins++
		}
	}
	assert.Equal(t, 1, joins)
}

func TestDisconnectNotifiesRemaining(t *testing.T) {
	f := newRelayFixture(t)
	c1 := f.connect(t, "u1", "c1")
	f.connect(t, "u2", "c2")

	room, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)
	_, _, err = f.relay.Join(room.ID, participant("u2", "c2"))
	require.NoError(t, err)

	f.relay.Disconnect("c2")

	lefts := c1.eventsOfType(t, EventParticipantLeft)
	require.Len(t, lefts, 1)
	assert.Equal(t, "c2", lefts[0]["connUserConnectionId"])

	got, ok := f.rooms.GetRoom(room.ID)
	require.True(t, ok, "room with a remaining participant survives")
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "c1", got.Participants[0].ConnectionID)
}

func TestLeaveLastParticipantDeletesRoom(t *testing.T) {
	f := newRelayFixture(t)
	f.connect(t, "u1", "c1")

	room, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)

	require.True(t, f.relay.Leave(room.ID, "c1"))
	_, ok := f.rooms.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestCreateRoomEvictsFromPreviousRoom(t *testing.T) {
	f := newRelayFixture(t)
	c1 := f.connect(t, "u1", "c1")
	f.connect(t, "u2", "c2")

	first, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)
	_, _, err = f.relay.Join(first.ID, participant("u2", "c2"))
	require.NoError(t, err)

	second, err := f.relay.CreateRoom(participant("u2", "c2"))
	require.NoError(t, err)

	// u2's session moved; u1 learned about the departure.
	lefts := c1.eventsOfType(t, EventParticipantLeft)
	require.Len(t, lefts, 1)
	assert.Equal(t, "c2", lefts[0]["connUserConnectionId"])

	got, ok := f.rooms.GetRoom(second.ID)
	require.True(t, ok)
	assert.Len(t, got.Participants, 1)
	gotFirst, ok := f.rooms.GetRoom(first.ID)
	require.True(t, ok)
	assert.Len(t, gotFirst.Participants, 1)
}

func TestInitConnectionIsPointToPoint(t *testing.T) {
	f := newRelayFixture(t)
	c1 := f.connect(t, "u1", "c1")
	c2 := f.connect(t, "u2", "c2")

	f.relay.InitConnection("c1", "c2")

	inits := c2.eventsOfType(t, EventConnInit)
	require.Len(t, inits, 1)
	assert.Equal(t, "c1", inits[0]["connUserConnectionId"])
	assert.Empty(t, c1.eventsOfType(t, EventConnInit))
}

func TestForwardSignalVerbatim(t *testing.T) {
	f := newRelayFixture(t)
	f.connect(t, "u1", "c1")
	c2 := f.connect(t, "u2", "c2")

	signal := json.RawMessage(`{"sdp":"v=0...","kind":"offer"}`)
	f.relay.ForwardSignal("c1", "c2", signal)

	signals := c2.eventsOfType(t, EventConnSignal)
	require.Len(t, signals, 1)
	assert.Equal(t, "c1", signals[0]["connUserConnectionId"])
	raw, err := json.Marshal(signals[0]["signal"])
	require.NoError(t, err)
	assert.JSONEq(t, string(signal), string(raw))
}

func TestForwardSignalToGoneConnectionIsDropped(t *testing.T) {
	f := newRelayFixture(t)
	c1 := f.connect(t, "u1", "c1")

	require.NotPanics(t, func() {
		f.relay.ForwardSignal("c1", "gone", json.RawMessage(`{"x":1}`))
	})
	// No error event surfaces to the sender.
	assert.Empty(t, c1.eventsOfType(t, EventError))
}

func TestRoomLifecycleFeedsHistory(t *testing.T) {
	f := newRelayFixture(t)
	f.connect(t, "u1", "c1")

	room, err := f.relay.CreateRoom(participant("u1", "c1"))
	require.NoError(t, err)
	require.True(t, f.relay.Leave(room.ID, "c1"))

	f.history.Close()
	events := f.sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.CallEventJoinedRoom, events[0].Kind)
	assert.Equal(t, domain.CallEventLeftRoom, events[1].Kind)
}
