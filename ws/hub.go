package ws

import (
	"encoding/json"
	"sync"
	"time"

	"users-server/logger"

	"github.com/gorilla/websocket"
)

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Event is one entity change pushed to every connected console.
type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	ID     int64     `json:"id"`
	By     int64     `json:"by,omitempty"`
	At     time.Time `json:"at"`
	Data   any       `json:"data,omitempty"`
}

// sendBuffer is how many events may queue for one console before it is
// considered stalled and dropped.
const sendBuffer = 64

const writeWait = 10 * time.Second

type client struct {
	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks; a full queue reports false.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// writeLoop is the only goroutine that writes to conn.
func (c *client) writeLoop(onFail func(error)) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
				_ = d.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				onFail(err)
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub keeps track of admin console websocket connections. Writes happen on a
// per-connection goroutine so a slow console never blocks the caller.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client // connection id -> client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Register adds a connection, replacing and closing any previous one under
// the same id.
func (h *Hub) Register(id string, conn Conn) {
	c := newClient(conn)
	h.mu.Lock()
	old, ok := h.clients[id]
	h.clients[id] = c
	h.mu.Unlock()
	if ok {
		if old.conn == conn {
			old.once.Do(func() { close(old.done) })
		} else {
			old.close()
		}
	}
	go c.writeLoop(func(err error) {
		logger.Debug().Err(err).Str("conn", id).Msg("Dropping console connection")
		h.drop(id, c)
	})
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// drop removes c only if it is still the client registered under id.
func (h *Hub) drop(id string, c *client) {
	h.mu.Lock()
	if h.clients[id] == c {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	c.close()
}

// Broadcast queues ev for every connection and returns how many accepted it.
// A connection whose queue is full is dropped.
func (h *Hub) Broadcast(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Str("type", ev.Type).Msg("Failed to encode hub event")
		return 0
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	sent := 0
	for id, c := range targets {
		if !c.enqueue(payload) {
			logger.Warn().Str("conn", id).Msg("Console not keeping up, dropping connection")
			h.drop(id, c)
			continue
		}
		sent++
	}
	return sent
}

// List returns the ids of current connections.
func (h *Hub) List() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// Send queues ev for one connection. It reports false when the connection is
// unknown or its queue is full; a full connection is dropped.
func (h *Hub) Send(id string, ev Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if !c.enqueue(payload) {
		h.drop(id, c)
		return false
	}
	return true
}
