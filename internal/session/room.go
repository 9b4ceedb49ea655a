package session

import (
	"sync"

	"bridgequest/internal/models"
)

// Room is the set of clients subscribed to one broadcast channel
// (a game's lobby channel or its game channel).
type Room struct {
	Channel string
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewRoom(channel string) *Room {
	return &Room{Channel: channel, clients: make(map[*Client]struct{})}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// Leave removes the client and reports how many remain.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast delivers the event to every subscribed client.
func (r *Room) Broadcast(event models.GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		c.Send(event)
	}
}
