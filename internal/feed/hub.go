// Package feed broadcasts saved-progress events to live subscribers.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/learn-tracker/internal/progress"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

// Event types.
const (
	TypeProgressSaved = "progress_saved"
)

// Event is one broadcast message.
type Event struct {
	Type    string           `json:"type"`
	UserID  string           `json:"user_id"`
	Overall progress.Overall `json:"overall"`
	At      time.Time        `json:"at"`
}

// Subscription receives events until it is unsubscribed. C is closed on
// Unsubscribe.
type Subscription struct {
	ID string
	C  <-chan Event

	ch chan Event
}

// Hub fans events out to subscribers. Slow subscribers lose events rather
// than block publishers.
type Hub struct {
	subs map[string]*Subscription
	mu   sync.RWMutex
	now  func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]*Subscription),
		now:  time.Now,
	}
}

// Subscribe registers a subscriber with a queue of buffer events.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{ID: uuid.NewString(), C: ch, ch: ch}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	n := len(h.subs)
	h.mu.Unlock()

	slog.Info("feed subscriber added", "subscriber_id", sub.ID, "subscribers", n)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()

	if ok {
		close(sub.ch)
		slog.Info("feed subscriber removed", "subscriber_id", id)
	}
}

// Close unsubscribes everyone. Publishing after Close reaches no one.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		close(sub.ch)
	}
	slog.Info("feed closed", "subscribers", len(subs))
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber with room in its queue and returns
// how many received it.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = h.now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			slog.Warn("feed subscriber queue full, dropping event",
				"subscriber_id", id,
				"type", ev.Type,
				"user_id", ev.UserID,
			)
		}
	}
	return delivered
}

// ProgressSaved publishes a progress_saved event.
func (h *Hub) ProgressSaved(_ context.Context, userID string, overall progress.Overall) {
	h.Publish(Event{Type: TypeProgressSaved, UserID: userID, Overall: overall})
}
