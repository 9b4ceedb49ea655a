package session

import (
	"sync"

	"bridgequest/internal/models"
)

// Hub manages all active broadcast rooms on this instance.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

func (h *Hub) GetOrCreate(channel string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[channel]; ok {
		return r
	}
	r := NewRoom(channel)
	h.rooms[channel] = r
	return r
}

func (h *Hub) Delete(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, channel)
}

// Dispatch forwards an event to the room's local subscribers, if any.
func (h *Hub) Dispatch(channel string, event models.GameEvent) {
	h.mu.RLock()
	room, ok := h.rooms[channel]
	h.mu.RUnlock()
	if ok {
		room.Broadcast(event)
	}
}

// ClientCount reports subscribers of a channel on this instance.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[channel]
	if !ok {
		return 0
	}
	return room.ClientCount()
}
