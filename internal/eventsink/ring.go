package eventsink

import (
	"sync"
	"time"
)

// Event is one received webhook delivery.
type Event struct {
	ReceivedAt time.Time         `json:"received_at"`
	Headers    map[string]string `json:"headers"`
	Body       map[string]any    `json:"body"`
}

// Ring keeps the most recent events up to a fixed capacity. Old deliveries
// fall off the front; the sink is for eyeballing payloads, not for audit.
type Ring struct {
	mu     sync.Mutex
	events []Event
	cap    int
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 50
	}
	return &Ring{cap: capacity}
}

func (r *Ring) Add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
}

// List returns newest first.
func (r *Ring) List() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	for i, e := range r.events {
		out[len(r.events)-1-i] = e
	}
	return out
}

func (r *Ring) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.events)
	r.events = nil
	return n
}
