// Package realtime fans live events out to connected subscribers grouped in rooms.
package realtime

import (
	"sync"

	"mercado/internal/metrics"
)

// AdminRoom is joined by every connection of an admin.
const AdminRoom = "admins"

// UserRoom names the personal room of a user.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Event is the payload pushed to subscribers.
type Event struct {
	Event          string `json:"event"`
	Message        string `json:"message"`
	EntityID       string `json:"entityId,omitempty"`
	NotificationID string `json:"notificationId,omitempty"`
}

// Subscriber is one live connection's membership in the hub.
type Subscriber struct {
	send  chan Event
	rooms []string
}

// Events is closed when the subscriber leaves the hub.
func (s *Subscriber) Events() <-chan Event {
	return s.send
}

// Hub is the process-wide room registry. Publishing never blocks: a push to
// a subscriber whose buffer is full is dropped.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscriber]struct{}
	buffer int
}

// NewHub creates a Hub whose subscribers buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		rooms:  make(map[string]map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Join registers a new subscriber in rooms.
func (h *Hub) Join(rooms ...string) *Subscriber {
	s := &Subscriber{
		send:  make(chan Event, h.buffer),
		rooms: rooms,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Subscriber]struct{})
			h.rooms[room] = members
		}
		members[s] = struct{}{}
	}
	metrics.RealtimeConnections.Inc()
	return s
}

// Leave removes s from every room and closes its event channel.
func (h *Hub) Leave(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := false
	for _, room := range s.rooms {
		members := h.rooms[room]
		if _, ok := members[s]; !ok {
			continue
		}
		joined = true
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if joined {
		close(s.send)
		metrics.RealtimeConnections.Dec()
	}
}

// Publish pushes ev to every subscriber of room and returns how many received it.
func (h *Hub) Publish(room string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.rooms[room] {
		select {
		case s.send <- ev:
			delivered++
		default:
			metrics.RealtimeDropped.Inc()
		}
	}
	return delivered
}

// Members returns the number of subscribers in room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
