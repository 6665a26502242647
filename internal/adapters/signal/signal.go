package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huddlechat/huddle/internal/app"
	"github.com/huddlechat/huddle/internal/config"
	"github.com/huddlechat/huddle/internal/core"
	"github.com/huddlechat/huddle/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalWSController terminates the persistent per-session connection
// and translates wire events into coordination-layer calls.
type SignalWSController struct {
	Registry *app.Registry
	Presence *app.Presence
	Relay    *app.Relay
	Calls    *app.Calls

	readLimit   int64
	pingPeriod  time.Duration
	sendBuffer  int
	roomLimiter *RoomRateLimiter
}

func NewSignalWSController(cfg *config.Config, reg *app.Registry, presence *app.Presence, relay *app.Relay, calls *app.Calls) *SignalWSController {
	pingPeriod := cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &SignalWSController{
		Registry:    reg,
		Presence:    presence,
		Relay:       relay,
		Calls:       calls,
		readLimit:   cfg.ReadLimit,
		pingPeriod:  pingPeriod,
		sendBuffer:  sendBuffer,
		roomLimiter: NewRoomRateLimiter(cfg.RoomCreateLimit, cfg.RoomCreateWindow),
	}
}

// wsConn is one live websocket with a bounded send queue. TrySend
// never blocks the caller: a full queue reports backpressure and the
// payload is dropped.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleSignal upgrades an authenticated request, registers the
// session and runs the read/write pumps until the peer goes away.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	user := domain.User{
		ID:       domain.UserID(c.GetString("user_id")),
		Username: c.GetString("username"),
	}
	if user.ID == "" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	connID := core.ConnectionID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.sendBuffer),
	}
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("user", string(user.ID)).Msg("new WS connection")

	ctl.Registry.Register(connID, user, conn)
	ctl.Presence.AnnouncePresence()
	ctl.Presence.AnnounceRoomsTo(ctx, connID, user.ID)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, connID, conn)
		ctl.teardown(connID)
	}()
}

// teardown runs once per connection, on read-pump exit.
func (ctl *SignalWSController) teardown(connID core.ConnectionID) {
	ctl.Registry.Unregister(connID)
	ctl.Relay.Disconnect(connID)
	ctl.Presence.AnnouncePresence()
	ctl.Presence.AnnounceRoomsGlobal()
	log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("session torn down")
}
