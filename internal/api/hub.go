package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type    string `json:"type"`
	CityID  string `json:"city_id,omitempty"`
	Payload any    `json:"payload"`
}

type outbound struct {
	cityID string
	data   []byte
}

type client struct {
	id     string
	cityID string // empty = every city
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans city updates out to websocket subscribers.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan outbound
	done       chan struct{}
	upgrader   websocket.Upgrader
}

// NewHub creates a hub; call Run to start delivering.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Run delivers broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			slog.Debug("websocket client connected", "client", c.id, "city", c.cityID)
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				slog.Debug("websocket client disconnected", "client", c.id)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c.cityID != "" && c.cityID != msg.cityID {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// Slow consumer.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish queues a message for every subscriber of its city. It never
// blocks; messages are dropped when the queue is full.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encode websocket message", "type", msg.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- outbound{cityID: msg.CityID, data: data}:
	default:
		slog.Warn("websocket broadcast queue full", "type", msg.Type)
	}
}

// ServeWS upgrades the request and subscribes the client. The optional
// "city" query parameter limits the stream to one city.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		id:     uuid.NewString(),
		cityID: r.URL.Query().Get("city"),
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writer()
	go c.reader(h)
}

// reader drains control frames; clients never send commands over the socket.
func (c *client) reader(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
