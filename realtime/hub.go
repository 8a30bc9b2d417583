// Package realtime fans score events out to live subscribers, typically
// WebSocket connections.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"growthkit/engine"
)

// Hub is a simple pub/sub for broadcasting score events to channels.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan engine.ScoreEvent
	next int
}

func NewHub() *Hub { return &Hub{subs: map[int]chan engine.ScoreEvent{}} }

func (h *Hub) Subscribe(buffer int) (int, <-chan engine.ScoreEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan engine.ScoreEvent, buffer)
	h.subs[id] = ch
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Broadcast(_ context.Context, ev engine.ScoreEvent) {
	// Sends are non-blocking, so the read lock is held for the whole
	// fan-out. Unsubscribe closes channels under the write lock, which
	// keeps a close from racing an in-flight send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default: /* drop if full */
		}
	}
}

// MarshalJSON is a helper to convert score events to JSON bytes for
// WebSocket delivery.
func MarshalJSON(ev engine.ScoreEvent) []byte {
	b, _ := json.Marshal(ev)
	return b
}
