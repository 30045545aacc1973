package notifications

import (
	"sync"
	"time"

	"github.com/eventlyhq/evently/internal/observability"
	"github.com/google/uuid"
)

// Subscriber is one connected client. Envelopes arrive on C; the owner
// must drain it and call Unregister when the connection goes away.
type Subscriber struct {
	ID string
	C  chan Envelope

	rooms map[string]struct{}
}

// Hub owns the registry of live subscribers and their room memberships.
// No global state: the hub is created at startup and injected wherever a
// Notifier is needed.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	prom        *observability.Prom
	buffer      int
}

func NewHub(buffer int, prom *observability.Prom) *Hub {
	if buffer <= 0 {
		buffer = 16
	}

	return &Hub{
		subscribers: make(map[string]*Subscriber),
		prom:        prom,
		buffer:      buffer,
	}
}

// Register adds a new subscriber and returns its handle.
func (h *Hub) Register() *Subscriber {
	sub := &Subscriber{
		ID:    uuid.NewString(),
		C:     make(chan Envelope, h.buffer),
		rooms: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()

	return sub
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]

	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		close(sub.C)
	}
}

// Join adds the subscriber to an event room.
func (h *Hub) Join(subscriberID, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscribers[subscriberID]

	if ok {
		sub.rooms[eventID] = struct{}{}
	}
}

func (h *Hub) Leave(subscriberID, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscribers[subscriberID]

	if ok {
		delete(sub.rooms, eventID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers)
}

func (h *Hub) Broadcast(event string, data any) {
	env := Envelope{Event: event, Data: data, Timestamp: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		h.send(sub, env)
	}

	if h.prom != nil {
		h.prom.NotificationsTotal.WithLabelValues(event, "global").Inc()
	}
}

func (h *Hub) BroadcastToEvent(eventID, event string, data any) {
	env := Envelope{Event: event, Data: data, Timestamp: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		if _, in := sub.rooms[eventID]; in {
			h.send(sub, env)
		}
	}

	if h.prom != nil {
		h.prom.NotificationsTotal.WithLabelValues(event, "room").Inc()
	}
}

// send never blocks a broadcaster on a slow subscriber: when the buffer
// is full the envelope is dropped and counted.
func (h *Hub) send(sub *Subscriber, env Envelope) {
	select {
	case sub.C <- env:
	default:
		if h.prom != nil {
			h.prom.DroppedNotifsTotal.WithLabelValues(env.Event).Inc()
		}
	}
}
