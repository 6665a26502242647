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

type callFixture struct {
	registry *Registry
	calls    *Calls
	sink     *store.MemoryHistory
	history  *History
}

func newCallFixture(t *testing.T) *callFixture {
	t.Helper()
	reg := NewRegistry()
	sink := store.NewMemoryHistory()
	history := NewHistory(sink, 16)
	t.Cleanup(history.Close)
	return &callFixture{
		registry: reg,
		calls:    NewCalls(NewBroadcaster(reg), history),
		sink:     sink,
		history:  history,
	}
}

func (f *callFixture) connect(t *testing.T, user, conn string) *fakeConn {
	t.Helper()
	c := &fakeConn{}
	f.registry.Register(core.ConnectionID(conn), domain.User{ID: domain.UserID(user), Username: user}, c)
	return c
}

func TestCallRequestReachesEveryReceiverDevice(t *testing.T) {
	f := newCallFixture(t)
	caller := f.connect(t, "caller", "c0")
	dev1 := f.connect(t, "receiver", "c1")
	dev2 := f.connect(t, "receiver", "c2")

	f.calls.Request(domain.CallRequest{
		CallerUserID:   "caller",
		CallerName:     "Carol",
		ReceiverUserID: "receiver",
		AudioOnly:      true,
		Signal:         json.RawMessage(`{"offer":true}`),
	})

	for _, dev := range []*fakeConn{dev1, dev2} {
		reqs := dev.eventsOfType(t, EventCallRequest)
		require.Len(t, reqs, 1)
		assert.Equal(t, "caller", reqs[0]["callerUserId"])
		assert.Equal(t, "Carol", reqs[0]["callerName"])
		assert.Equal(t, true, reqs[0]["audioOnly"])
	}
	assert.Empty(t, caller.eventsOfType(t, EventCallRequest))
}

func TestCallResponsesAreRelayedIndependently(t *testing.T) {
	f := newCallFixture(t)
	caller := f.connect(t, "caller", "c0")
	f.connect(t, "receiver", "c1")
	f.connect(t, "receiver", "c2")

	receiver := domain.User{ID: "receiver", Username: "Rae"}

	// First device answers.
	f.calls.Respond(receiver, "caller", true, json.RawMessage(`{"answer":1}`))
	resps := caller.eventsOfType(t, EventCallResponse)
	require.Len(t, resps, 1)
	assert.Equal(t, "receiver", resps[0]["otherUserId"])
	assert.Equal(t, true, resps[0]["accepted"])

	// Second device answers too; no server-side arbitration, both
	// responses reach the caller.
	f.calls.Respond(receiver, "caller", false, nil)
	resps = caller.eventsOfType(t, EventCallResponse)
	require.Len(t, resps, 2)
	assert.Equal(t, false, resps[1]["accepted"])
}

func TestCallRequestToOfflineUserIsDropped(t *testing.T) {
	f := newCallFixture(t)
	caller := f.connect(t, "caller", "c0")

	require.NotPanics(t, func() {
		f.calls.Request(domain.CallRequest{
			CallerUserID:   "caller",
			ReceiverUserID: "offline",
		})
	})
	assert.Empty(t, caller.eventsOfType(t, EventError))
}

func TestRespondFeedsHistory(t *testing.T) {
	f := newCallFixture(t)
	f.connect(t, "caller", "c0")

	f.calls.Respond(domain.User{ID: "receiver", Username: "Rae"}, "caller", true, nil)
	f.calls.Respond(domain.User{ID: "receiver", Username: "Rae"}, "caller", false, nil)

	f.history.Close()
	events := f.sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.CallEventAccepted, events[0].Kind)
	assert.Equal(t, domain.CallEventRejected, events[1].Kind)
}

func TestNotifyChatLeftFansOutToUser(t *testing.T) {
	f := newCallFixture(t)
	f.connect(t, "sender", "c0")
	dev1 := f.connect(t, "receiver", "c1")
	dev2 := f.connect(t, "receiver", "c2")

	f.calls.NotifyChatLeft("receiver")

	assert.Len(t, dev1.eventsOfType(t, EventNotifyChatLeft), 1)
	assert.Len(t, dev2.eventsOfType(t, EventNotifyChatLeft), 1)
}
