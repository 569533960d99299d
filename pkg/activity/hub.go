package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/models"
)

// DefaultWriteTimeout bounds how long a single WebSocket send may block.
const DefaultWriteTimeout = 5 * time.Second

// DefaultPingInterval is how often the hub pings an idle connection to
// detect half-open sockets.
const DefaultPingInterval = 30 * time.Second

// outboundMessage is the wire shape the client expects over the socket,
// per §6: {type, payload}.
type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans ActivityEvents out to per-user WebSocket connections, grounded on
// the teacher's ConnectionManager: a per-user set of live connections,
// best-effort send with a write timeout, a heartbeat ping, and close-on-
// slow-consumer instead of unbounded buffering.
type Hub struct {
	Bus          *Bus
	WriteTimeout time.Duration
	PingInterval time.Duration

	mu    sync.RWMutex
	conns map[string]map[string]*hubConnection // user_id → connection_id → conn
}

type hubConnection struct {
	id     string
	userID string
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

func (h *Hub) writeTimeout() time.Duration {
	if h.WriteTimeout > 0 {
		return h.WriteTimeout
	}
	return DefaultWriteTimeout
}

func (h *Hub) pingInterval() time.Duration {
	if h.PingInterval > 0 {
		return h.PingInterval
	}
	return DefaultPingInterval
}

// HandleConnection manages one WebSocket client bound to userID. Blocks
// until the connection closes (client disconnect, missed pongs, or parent
// context cancellation).
func (h *Hub) HandleConnection(parentCtx context.Context, userID string, conn *websocket.Conn) {
	connID := uuid.NewString()
	ctx, cancel := context.WithCancel(parentCtx)

	c := &hubConnection{id: connID, userID: userID, conn: conn, ctx: ctx, cancel: cancel}

	h.register(c)
	unsubscribe := h.Bus.Subscribe(userID, connID, c)
	defer func() {
		unsubscribe()
		h.unregister(c)
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	h.sendJSON(c, outboundMessage{Type: "connection", Payload: map[string]string{"connection_id": connID}})

	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		h.pingLoop(ctx, c)
	}()

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			cancel()
			break
		}
	}
	<-pingDone
}

// pingLoop sends a periodic heartbeat; a failed ping (timeout, closed
// connection, or missed pong surfaced as a write error) closes the
// connection by cancelling its context.
func (h *Hub) pingLoop(ctx context.Context, c *hubConnection) {
	ticker := time.NewTicker(h.pingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.writeTimeout())
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Warn("websocket heartbeat failed, closing connection", "connection_id", c.id, "error", err)
				c.cancel()
				return
			}
		}
	}
}

// Deliver implements Subscriber: a best-effort send with a bounded timeout.
// A send that fails (full buffer, slow consumer, closed socket) closes the
// connection rather than blocking the dispatch goroutine for other
// subscribers of the same user.
func (c *hubConnection) Deliver(event models.ActivityEvent) {
	data, err := json.Marshal(outboundMessage{Type: "activity", Payload: event})
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("failed to deliver activity event, closing connection", "connection_id", c.id, "error", err)
		c.cancel()
	}
}

func (h *Hub) sendJSON(c *hubConnection, v outboundMessage) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(c.ctx, h.writeTimeout())
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("failed to send websocket message", "connection_id", c.id, "error", err)
	}
}

func (h *Hub) register(c *hubConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns == nil {
		h.conns = make(map[string]map[string]*hubConnection)
	}
	if h.conns[c.userID] == nil {
		h.conns[c.userID] = make(map[string]*hubConnection)
	}
	h.conns[c.userID][c.id] = c
}

func (h *Hub) unregister(c *hubConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[c.userID]; ok {
		delete(set, c.id)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
}

// ActiveConnections returns the number of live connections for a user.
func (h *Hub) ActiveConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
