package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Revalidator tells viewers that the data behind the given paths changed.
// Signals are hints; losing one never affects stored state.
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string)
}

type Message struct {
	Type string    `json:"type"`
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

type client struct {
	conn  *websocket.Conn
	send  chan Message
	paths map[string]bool
}

// Hub fans revalidation signals out to the websocket clients watching a path.
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.RWMutex
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		now:     time.Now,
	}
}

func (h *Hub) register(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Revalidate broadcasts one message per path. Slow clients are dropped
// instead of blocking the caller.
func (h *Hub) Revalidate(_ context.Context, paths ...string) {
	at := h.now().UTC()

	h.mutex.RLock()
	var slow []*client
	for c := range h.clients {
		for _, p := range paths {
			if !c.paths[p] {
				continue
			}
			select {
			case c.send <- Message{Type: "revalidate", Path: p, At: at}:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mutex.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve attaches conn to the hub and blocks until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, paths []string) {
	c := &client{
		conn:  conn,
		send:  make(chan Message, sendBuffer),
		paths: make(map[string]bool, len(paths)),
	}
	for _, p := range paths {
		c.paths[p] = true
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only services control frames; clients never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("refresh_ws_error error=%q", err.Error())
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
