// Package signal is the WebSocket edge of the engine: it upgrades handshakes,
// decodes the message envelope, invokes the state owners and fans results out
// to the interested identities.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/app"
	"github.com/ksuvorov/livewire/internal/core"
	"github.com/ksuvorov/livewire/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Registry *app.Registry
	Calls    *app.CallManager
	Voice    *app.VoiceRooms
	Live     *app.LiveRooms
	Presence core.PresenceStore

	ReadLimit  int64
	PingPeriod time.Duration
}

// wsConn wraps a gorilla connection with a buffered outbox so slow readers
// never block a fan-out. It remembers its owner so disconnect cleanup does
// not depend on the socket being readable.
type wsConn struct {
	userID domain.UserID
	conn   *websocket.Conn
	send   chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
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
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection until the socket
// closes or the server context is canceled. The identity was already
// resolved by the handshake middleware.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context, userID domain.UserID) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsConn{
		userID: userID,
		conn:   ws,
		send:   make(chan core.Frame, 32),
	}

	ctl.Registry.OnConnect(userID, conn)
	if err := ctl.Presence.HandleConnect(ctx, userID); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(userID)).Msg("presence connect")
	}
	log.Info().Str("module", "signal").Str("user", string(userID)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
		ctl.Registry.OnDisconnect(userID, conn)
		if err := ctl.Presence.HandleDisconnect(context.WithoutCancel(ctx), userID); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("user", string(userID)).Msg("presence disconnect")
		}
	}()
}
