package signal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddlechat/huddle/internal/adapters/store"
	"github.com/huddlechat/huddle/internal/app"
	"github.com/huddlechat/huddle/internal/config"
	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

func newTestController(t *testing.T) *SignalWSController {
	t.Helper()
	reg := app.NewRegistry()
	rooms := app.NewRoomStore()
	bc := app.NewBroadcaster(reg)
	history := app.NewHistory(store.NewMemoryHistory(), 16)
	t.Cleanup(history.Close)
	cfg := &config.Config{
		ReadLimit:        65536,
		PingPeriod:       time.Second,
		SendBuffer:       8,
		RoomCreateLimit:  10,
		RoomCreateWindow: time.Minute,
	}
	return NewSignalWSController(cfg, reg,
		app.NewPresence(reg, rooms, bc, store.NewMemoryDirectory()),
		app.NewRelay(rooms, bc, history),
		app.NewCalls(bc, history))
}

// register puts a session into the controller's registry the way the
// upgrade path does, without a real socket behind it.
func register(ctl *SignalWSController, user, conn string) *wsConn {
	c := &wsConn{send: make(chan core.Frame, ctl.sendBuffer)}
	ctl.Registry.Register(core.ConnectionID(conn),
		domain.User{ID: domain.UserID(user), Username: user}, c)
	return c
}

func drain(t *testing.T, c *wsConn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case f := <-c.send:
			var m map[string]any
			require.NoError(t, json.Unmarshal(f, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func requireErrorEvent(t *testing.T, c *wsConn, msg string) {
	t.Helper()
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, app.EventError, got[0]["type"])
	assert.Equal(t, msg, got[0]["error"])
}

func TestHandleEventBadJSON(t *testing.T) {
	ctl := newTestController(t)
	c := register(ctl, "u1", "c1")

	ctl.handleEvent("c1", c, []byte(`{not json`))
	requireErrorEvent(t, c, "bad_payload")

	// The session survives a malformed frame.
	ctl.handleEvent("c1", c, []byte(`{"type":"ping"}`))
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, "pong", got[0]["type"])
}

func TestHandleEventUnknownType(t *testing.T) {
	ctl := newTestController(t)
	c := register(ctl, "u1", "c1")

	ctl.handleEvent("c1", c, []byte(`{"type":"room-destroy"}`))
	requireErrorEvent(t, c, "unknown_event")
}

func TestRoomJoinMissingRoomID(t *testing.T) {
	ctl := newTestController(t)
	c := register(ctl, "u1", "c1")

	ctl.handleEvent("c1", c, []byte(`{"type":"room-join"}`))
	requireErrorEvent(t, c, "bad_payload")
}

func TestRoomJoinUnknownRoom(t *testing.T) {
	ctl := newTestController(t)
	c := register(ctl, "u1", "c1")

	ctl.handleEvent("c1", c, []byte(`{"type":"room-join","roomId":"missing"}`))
	requireErrorEvent(t, c, "room not found")
}

func TestConnInitMissingTarget(t *testing.T) {
	ctl := newTestController(t)
	c := register(ctl, "u1", "c1")

	ctl.handleEvent("c1", c, []byte(`{"type":"conn-init"}`))
	requireErrorEvent(t, c, "bad_payload")
}

func TestNewControllerLeavesConfigUntouched(t *testing.T) {
	cfg := &config.Config{}
	reg := app.NewRegistry()
	rooms := app.NewRoomStore()
	bc := app.NewBroadcaster(reg)
	history := app.NewHistory(store.NewMemoryHistory(), 1)
	t.Cleanup(history.Close)

	ctl := NewSignalWSController(cfg, reg,
		app.NewPresence(reg, rooms, bc, store.NewMemoryDirectory()),
		app.NewRelay(rooms, bc, history),
		app.NewCalls(bc, history))

	assert.Positive(t, ctl.pingPeriod)
	assert.Positive(t, ctl.sendBuffer)
	assert.Zero(t, cfg.PingPeriod, "defaults stay local to the controller")
	assert.Zero(t, cfg.SendBuffer)
}
