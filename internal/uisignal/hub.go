// Package uisignal carries UI signaling between the chapter and browser
// clients over websocket: skip affordance, highlights, errors, dialogue,
// goals and outcomes out; skip requests, pulls and orders in.
package uisignal

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/orders"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

// Server to client message types.
const (
	TypeShowSkip       = "show_skip_button"
	TypeHighlight      = "highlight"
	TypeError          = "error_message"
	TypeSectionStarted = "section_started"
	TypeOutcome        = "stack_outcome"
	TypeDialogue       = "dialogue"
	TypeGoal           = "goal"
)

// Client to server message types.
const (
	TypeSkip   = "skip"
	TypePull   = "pull"
	TypeOrder  = "order"
	TypePickUp = "pick_up"
)

// Message is sent to every connected client.
type Message struct {
	Type     string               `json:"type"`
	Session  string               `json:"session,omitempty"`
	Show     *bool                `json:"show,omitempty"`
	Entities []region.EntityID    `json:"entities,omitempty"`
	Player   *creepstack.PlayerID `json:"player,omitempty"`
	Key      string               `json:"key,omitempty"`
	Text     string               `json:"text,omitempty"`
	Section  string               `json:"section,omitempty"`
	Goal     string               `json:"goal,omitempty"`
	State    string               `json:"state,omitempty"`
	Value    *int                 `json:"value,omitempty"`
	Outcome  *stacking.Outcome    `json:"outcome,omitempty"`
}

// ClientMessage is a request read from a client.
type ClientMessage struct {
	Type   string        `json:"type"`
	Order  *orders.Order `json:"order,omitempty"`
	Target *[2]float64   `json:"target,omitempty"`
	Item   string        `json:"item,omitempty"`
}

// Inbound receives client requests on the connection's reader goroutine.
type Inbound func(ClientMessage)

type client struct {
	id   uint64
	send chan []byte
}

// Hub fans messages out to connected clients. Slow clients drop messages
// rather than block the tick loop.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader
	inbound  Inbound
	localize func(key string) string
	session  func() string

	mu      sync.Mutex
	clients map[*client]struct{}
	nextID  atomic.Uint64
	closed  bool
}

type Option func(*Hub)

func WithLogger(l *log.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithLocalizer resolves dialogue and goal keys to display text.
func WithLocalizer(fn func(key string) string) Option {
	return func(h *Hub) { h.localize = fn }
}

// WithSession stamps outgoing messages with the current session ID.
func WithSession(fn func() string) Option {
	return func(h *Hub) { h.session = fn }
}

func NewHub(inbound Inbound, opts ...Option) *Hub {
	h := &Hub{
		logger:   log.New(io.Discard, "", 0),
		inbound:  inbound,
		localize: func(key string) string { return key },
		session:  func() string { return "" },
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler upgrades the request and serves the client until it disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{id: h.nextID.Add(1), send: make(chan []byte, 64)}
		if !h.register(c) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		h.logger.Printf("uisignal: client %d connected from %s", c.id, r.RemoteAddr)
		defer h.unregister(c)

		// Writer goroutine.
		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			for b := range c.send {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				h.logger.Printf("uisignal: client %d: bad message: %v", c.id, err)
				continue
			}
			if h.inbound != nil {
				h.inbound(msg)
			}
		}

		h.unregister(c)
		select {
		case <-writeDone:
		case <-time.After(500 * time.Millisecond):
		}
		h.logger.Printf("uisignal: client %d disconnected", c.id)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends m to every client, dropping it for clients whose queue is
// full.
func (h *Hub) Broadcast(m Message) {
	m.Session = h.session()
	b, err := json.Marshal(m)
	if err != nil {
		h.logger.Printf("uisignal: marshal %s: %v", m.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default: // Non-blocking drop
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
