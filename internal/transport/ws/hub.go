// Package ws is the live notification channel: a registry of connected
// dashboard clients and the gorilla/websocket transport that feeds it.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"moderation-service/internal/entity"
)

var (
	ErrSlowConsumer = errors.New("subscriber buffer full")
	ErrClosed       = errors.New("subscriber closed")
)

// Subscriber is one live connection as seen by the Hub.
type Subscriber interface {
	ID() string
	// Deliver must not block.
	Deliver(msg []byte) error
	Close()
}

// Hub is the set of currently connected subscribers. Membership changes and
// publishes are serialized, so an event reaches exactly the members present
// when it was published.
type Hub struct {
	mu      sync.Mutex
	members map[string]Subscriber
}

func NewHub() *Hub {
	return &Hub{members: make(map[string]Subscriber)}
}

// Join adds s and sends it the connected greeting.
func (h *Hub) Join(s Subscriber) error {
	msg, err := json.Marshal(entity.ConnectedEvent())
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := s.Deliver(msg); err != nil {
		s.Close()
		return err
	}
	h.members[s.ID()] = s
	log.Printf("[ws] client_id=%s joined clients=%d", s.ID(), len(h.members))
	return nil
}

// Leave removes the subscriber with id and closes it. Unknown ids are ignored.
func (h *Hub) Leave(id string) {
	h.mu.Lock()
	s, ok := h.members[id]
	delete(h.members, id)
	n := len(h.members)
	h.mu.Unlock()

	if ok {
		s.Close()
		log.Printf("[ws] client_id=%s left clients=%d", id, n)
	}
}

// Publish encodes ev once and hands it to every member. Members that cannot
// take it are dropped; the caller never sees delivery errors.
func (h *Hub) Publish(_ context.Context, ev entity.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[ws] event=%s encode error=%v", ev.Type, err)
		return
	}

	h.mu.Lock()
	var dropped []Subscriber
	for id, s := range h.members {
		if err := s.Deliver(msg); err != nil {
			log.Printf("[ws] client_id=%s event=%s deliver error=%v", id, ev.Type, err)
			delete(h.members, id)
			dropped = append(dropped, s)
		}
	}
	h.mu.Unlock()

	for _, s := range dropped {
		s.Close()
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.members)
}

// Shutdown closes every member.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	members := h.members
	h.members = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, s := range members {
		s.Close()
	}
}
