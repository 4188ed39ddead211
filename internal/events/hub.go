// Package events fans session and queue notifications out to websocket
// subscribers. Publishing never blocks: a subscriber that cannot keep up has
// its oldest events dropped.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tarunvipparti/DFS/pkg/lifecycle"
)

const clientBuffer = 32

// Event is one notification delivered to subscribers.
type Event struct {
	Kind    string    `json:"kind"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type client struct {
	send chan Event
}

// Hub tracks websocket subscribers and broadcasts events to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.With("system", "events"),
	}
}

// Start registers a shutdown hook that disconnects all subscribers.
func (h *Hub) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		h.closeAll()
	})
	return nil
}

// Publish broadcasts an event to all subscribers without blocking. Slow
// subscribers lose their oldest buffered event to make room.
func (h *Hub) Publish(kind string, payload any) {
	event := Event{Kind: kind, Payload: payload, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- event:
			default:
			}
		}
	}
}

func (h *Hub) subscribe() *client {
	c := &client{send: make(chan Event, clientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(c.send)
		return c
	}

	h.clients[c] = struct{}{}
	h.logger.Debug("subscriber connected", "subscribers", len(h.clients))
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Debug("subscriber disconnected", "subscribers", len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
