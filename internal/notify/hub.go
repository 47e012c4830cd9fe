package notify

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 5 * time.Second,
	// The agent binds to loopback only, the editor connects from a
	// local renderer process with a file:// or app:// origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans events out to every connected editor window. Slow or dead
// connections are dropped rather than allowed to stall the rest.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:   log,
		conns: make(map[*client]struct{}),
	}
}

// Handler upgrades an HTTP request and registers the connection.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "err", err)
			return
		}

		c := &client{conn: conn, send: make(chan Event, sendBuffer)}
		h.register(c)
		go h.writeLoop(c)
		go h.readLoop(c)
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.send <- ev:
		default:
			// Buffer full, the client is not keeping up.
			h.dropLocked(c)
		}
	}
}

// ClientCount reports the number of connected editor windows.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		h.dropLocked(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Debug("editor connected", "clients", n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	close(c.send)
}

func (h *Hub) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()
	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.unregister(c)
			return
		}
	}
	// Channel closed by the hub, attempt a proper close handshake.
	deadline := time.Now().Add(writeTimeout)
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

// readLoop drains the connection so pings are answered and closes are
// noticed. Clients do not send application messages.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}
