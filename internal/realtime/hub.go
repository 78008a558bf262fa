// Package realtime fans table change events out to live subscribers.
package realtime

import (
	"sync"

	"phone-tracker/internal/models"
)

// Hub broadcasts change events to every open Subscription.
//
// Each subscriber has a one-slot buffer and Publish never blocks. Subscribers react to an event
// by re-reading the whole table, so an event that finds the slot full is redundant with the one
// already pending and is dropped.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan models.ChangeEvent
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan models.ChangeEvent)}
}

// Subscription is a scoped handle on the change feed. Close must be called when done.
type Subscription struct {
	C <-chan models.ChangeEvent

	hub  *Hub
	id   int
	once sync.Once
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan models.ChangeEvent, 1)
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	return &Subscription{C: ch, hub: h, id: id}
}

// Publish delivers event to every subscriber without blocking
func (h *Hub) Publish(event models.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Len reports the number of open subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close releases the subscription and closes its channel. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()

		if ch, ok := s.hub.subs[s.id]; ok {
			delete(s.hub.subs, s.id)
			close(ch)
		}
	})
}
