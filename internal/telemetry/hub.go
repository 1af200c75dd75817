package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

// Event is a state-change notification emitted by the core. The UI and
// plugins consume these instead of receiving direct callbacks.
type Event struct {
	ID   int64                  `json:"id"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
	Ts   time.Time              `json:"ts"`
}

// Hub fans state events out to subscribers over buffered channels and keeps
// a ring buffer so a late subscriber can replay what it missed.
//
// Publishing never blocks: a subscriber that cannot keep up loses events
// rather than stalling the core.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer *eventBuffer
	closed bool

	nextID atomic.Int64

	subBuffer int
}

// defaultSubscriberBuffer is the per-subscriber channel depth.
const defaultSubscriberBuffer = 64

// NewHub creates a hub retaining the last bufferSize events for replay.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 50
	}
	return &Hub{
		subs:      make(map[string]chan Event),
		buffer:    newEventBuffer(bufferSize),
		subBuffer: defaultSubscriberBuffer,
	}
}

// Subscribe registers a new subscriber and returns its ID and event channel.
// The channel is closed on Unsubscribe or Stop.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := "sub_" + xid.New().String()
	ch := make(chan Event, h.subBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish assigns the event a monotonic ID, buffers it and fans it out.
// Slow subscribers are skipped.
func (h *Hub) Publish(event Event) {
	if event.ID == 0 {
		event.ID = h.nextID.Add(1)
	}
	if event.Ts.IsZero() {
		event.Ts = time.Now().UTC()
	}

	h.buffer.add(event)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full; drop rather than block the core.
		}
	}
}

// Emit is a convenience wrapper building the event from type and data.
func (h *Hub) Emit(eventType string, data map[string]interface{}) {
	h.Publish(Event{Type: eventType, Data: data})
}

// Replay returns buffered events with an ID greater than lastID, oldest
// first.
func (h *Hub) Replay(lastID int64) []Event {
	return h.buffer.eventsAfter(lastID)
}

// Stop closes every subscriber channel. Publishing after Stop is a no-op.
func (h *Hub) Stop() {
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

// eventBuffer is a mutex-guarded ring of recent events.
type eventBuffer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

func newEventBuffer(capacity int) *eventBuffer {
	return &eventBuffer{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
	}
}

func (b *eventBuffer) add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

func (b *eventBuffer) eventsAfter(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, event := range b.events {
		if event.ID > lastID {
			result = append(result, event)
		}
	}
	return result
}

func (b *eventBuffer) size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
