// Package status fans frames and status messages out to the connected
// browser clients and passes their input events back.
package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

const (
	pingPeriod   = 30 * time.Second
	writeTimeout = 40 * time.Second
	readTimeout  = 70 * time.Second
	sendBuffer   = 32
)

// Envelope is every server to client message. Type is "status" or "frame".
type Envelope struct {
	Type   string      `json:"type"`
	Status *Status     `json:"status,omitempty"`
	Frame  interface{} `json:"frame,omitempty"`
}

type Status struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

// Event is a client to server message: "resize" carries Width and Height,
// "key" carries Code and Down.
type Event struct {
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Code   string `json:"code,omitempty"`
	Down   bool   `json:"down,omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[status] ws read error: %v", err)
			}
			return
		}
		c.hub.dispatch(&ev)
	}
}

// Hub keeps the client list. The last status message is replayed to every
// new client.
type Hub struct {
	mu          sync.Mutex
	clients     map[*client]bool
	lastMessage []byte
	onEvent     func(*Event)
	dropped     uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// OnEvent sets the receiver of client events. It is called from the
// connection goroutines.
func (h *Hub) OnEvent(fn func(*Event)) {
	h.mu.Lock()
	h.onEvent = fn
	h.mu.Unlock()
}

func (h *Hub) dispatch(ev *Event) {
	h.mu.Lock()
	fn := h.onEvent
	h.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Serve starts the pumps of an upgraded connection and returns
// immediately.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	if h.lastMessage != nil {
		c.send <- h.lastMessage
	}
	h.mu.Unlock()
	go c.writePump()
	go c.readPump()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped counts messages skipped because a client queue was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// broadcast never blocks: a client that is not keeping up loses the
// message.
func (h *Hub) broadcast(data []byte, keep bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if keep {
		h.lastMessage = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped++
		}
	}
}

func (h *Hub) send(env *Envelope, keep bool) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	h.broadcast(data, keep)
	return nil
}

// Frame broadcasts a recorded frame.
func (h *Hub) Frame(frame interface{}) error {
	return h.send(&Envelope{Type: "frame", Frame: frame}, false)
}

func (h *Hub) Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	s := &Status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress}
	if err := h.send(&Envelope{Type: "status", Status: s}, true); err != nil {
		log.Printf("[status] marshal error: %v", err)
	}
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func (h *Hub) Progress(progress float32, format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}
