// Package notify fans committed change events out to subscribers.
// Delivery is best-effort: each subscriber has a bounded buffer and an
// event is dropped for a subscriber whose buffer is full, so a slow or
// disconnected observer can never block or backpressure the mutation
// path.
package notify

import (
	"log/slog"
	"sync"

	"github.com/clinicops/medagent/internal/domain"
)

// DefaultBuffer is the per-subscriber event buffer size.
const DefaultBuffer = 16

// Hub is a session-agnostic broadcast channel for change events.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	buffer int
	logger *slog.Logger
}

// NewHub creates a hub. buffer <= 0 selects DefaultBuffer.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

var _ domain.Notifier = (*Hub)(nil)

// Subscriber receives change events until closed.
type Subscriber struct {
	hub  *Hub
	ch   chan domain.ChangeEvent
	once sync.Once
}

// Events is the subscriber's receive channel. It is closed by Close.
func (s *Subscriber) Events() <-chan domain.ChangeEvent {
	return s.ch
}

// Close detaches the subscriber from the hub and closes its channel.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{hub: h, ch: make(chan domain.ChangeEvent, h.buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers an event to every current subscriber without
// blocking. A full subscriber buffer drops the event for that
// subscriber only.
func (h *Hub) Publish(event domain.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn("dropping change event for slow subscriber",
				slog.String("table", event.Table))
		}
	}
}

// Len returns the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
