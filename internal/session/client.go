package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"bridgequest/internal/models"
)

// Client is one connected WebSocket subscriber.
type Client struct {
	ID   string
	Conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.GameEvent)
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{ID: id, Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.GameEvent)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(event models.GameEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(event)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(event)
}
