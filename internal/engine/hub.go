package engine

import (
	"sync"

	"github.com/google/uuid"

	"aprsgw/internal/station"
)

// Event is one notification pushed to subscribers: a processed frame, with
// enough context to update a console view without re-querying the store.
type Event struct {
	Result    station.ObserveResult
	Duplicate bool
}

// Hub fans out ingress events to any number of subscribers (console UIs,
// the metrics layer, test harnesses). Matches the teacher's callback-hook
// role in internal/state.Tracker (OnAircraftNew et al.) but as a dynamic
// subscriber set instead of fixed fields, since the console here attaches
// and detaches at runtime rather than being wired once at startup.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]chan Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]chan Event)}
}

// Subscribe registers a new listener and returns its token (for
// Unsubscribe) and the channel it will receive events on. The channel is
// buffered; a slow subscriber drops events rather than blocking ingress.
func (h *Hub) Subscribe(buffer int) (uuid.UUID, <-chan Event) {
	if buffer <= 0 {
		buffer = 16
	}
	token := uuid.New()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[token] = ch
	h.mu.Unlock()

	return token, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(token uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.subs[token]
	if ok {
		delete(h.subs, token)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Publish delivers an event to every current subscriber. A subscriber whose
// buffer is full has the event dropped for it; Publish never blocks on a
// slow consumer.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
