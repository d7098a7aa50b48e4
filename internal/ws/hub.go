package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go-sales-crm/internal/policy"

	"github.com/gofiber/contrib/websocket"
)

// Event is the envelope written to subscribed sockets.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a registered socket and the authenticated user behind it.
type Client struct {
	Conn   Conn
	Caller policy.Caller
}

// message is a queued event. Owner 0 reaches every client; otherwise only
// the owner and admins receive it.
type message struct {
	owner uint
	data  []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan message
	done       chan struct{}
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.Clients {
				client.Conn.Close()
				delete(h.Clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			slog.Debug("ws client connected", "user_id", client.Caller.UserID, "clients", h.Count())

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case msg := <-h.Broadcast:
			h.mutex.Lock()
			for client := range h.Clients {
				if !client.receives(msg.owner) {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					client.Conn.Close()
					delete(h.Clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (c *Client) receives(owner uint) bool {
	return owner == 0 || policy.CanAccess(c.Caller, owner, true)
}

// Count returns the number of connected sockets.
func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish queues an event for every connected user.
func (h *Hub) Publish(eventType string, payload any) {
	h.PublishTo(0, eventType, payload)
}

// PublishTo queues an event for ownerID and admins. It never blocks: a nil
// hub is a no-op and a full queue drops the event.
func (h *Hub) PublishTo(ownerID uint, eventType string, payload any) {
	if h == nil {
		return
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, SentAt: time.Now()})
	if err != nil {
		slog.Warn("ws marshal event", "type", eventType, "err", err)
		return
	}
	select {
	case h.Broadcast <- message{owner: ownerID, data: data}:
	default:
		slog.Warn("ws broadcast queue full, event dropped", "type", eventType)
	}
}

// Serve is the per-connection loop mounted on the websocket route.
func (h *Hub) Serve(c *websocket.Conn, caller policy.Caller) {
	client := &Client{Conn: c, Caller: caller}
	if !h.join(client) {
		c.Close()
		return
	}
	defer h.leave(client)

	for {
		// Keep alive loop
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// join registers client, or reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}
