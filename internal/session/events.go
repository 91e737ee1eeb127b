package session

import (
	"sync"

	"github.com/benediktms/chesstty/internal/models"
)

// EventKind discriminates session broadcast events.
type EventKind string

const (
	EventStateChanged   EventKind = "state_changed"
	EventEngineThinking EventKind = "engine_thinking"
	EventUciMessage     EventKind = "uci_message"
	EventError          EventKind = "error"
)

// Event is one broadcast to session subscribers.
type Event struct {
	Kind     EventKind               `json:"kind"`
	Snapshot *models.SessionSnapshot `json:"snapshot,omitempty"`
	Analysis *models.EngineAnalysis  `json:"analysis,omitempty"`

	// EngineThinking payload.
	Thinking bool `json:"thinking,omitempty"`

	// UciMessage fields.
	Direction string `json:"direction,omitempty"`
	Line      string `json:"line,omitempty"`

	Message string `json:"message,omitempty"`
}

// subscriberCapacity bounds each subscriber channel unless configured
// otherwise. Slow subscribers lose old events rather than stalling the
// actor.
const subscriberCapacity = 100

// hub fans session events out to subscribers.
type hub struct {
	capacity int

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newHub(capacity int) *hub {
	if capacity <= 0 {
		capacity = subscriberCapacity
	}
	return &hub{capacity: capacity, subs: make(map[int]chan Event)}
}

// subscribe registers a new subscriber and returns its channel plus a
// cancel function. After close, the returned channel is already closed.
func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, h.capacity)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers an event to every subscriber. A full subscriber
// drops its oldest event to make room, so the latest state always
// lands.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
