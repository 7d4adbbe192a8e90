package events

import (
	"sync"
	"time"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

type (
	// Hub fans engine events out to any number of consumers. Publishing
	// never blocks; a consumer that falls behind loses events rather than
	// stalling the run that produced them
	Hub struct {
		consumers map[*Consumer]struct{}
		mu        sync.Mutex
	}

	// Consumer receives events from a Hub until closed
	Consumer struct {
		hub    *Hub
		events chan *api.Event
		once   sync.Once
	}

	// Filter reports whether a consumer wants the given event
	Filter func(*api.Event) bool
)

const consumerBufferSize = 64

// NewHub creates an event hub with no consumers
func NewHub() *Hub {
	return &Hub{
		consumers: map[*Consumer]struct{}{},
	}
}

// NewConsumer registers and returns a new consumer on the hub
func (h *Hub) NewConsumer() *Consumer {
	c := &Consumer{
		hub:    h,
		events: make(chan *api.Event, consumerBufferSize),
	}
	h.mu.Lock()
	h.consumers[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Publish delivers the event to all registered consumers
func (h *Hub) Publish(ev *api.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.consumers {
		select {
		case c.events <- ev:
		default:
		}
	}
}

// Raise constructs and publishes an event in one call
func (h *Hub) Raise(
	t api.EventType, runID api.RunID, stepID api.ID, data any,
) {
	h.Publish(&api.Event{
		Type:   t,
		RunID:  runID,
		StepID: stepID,
		Data:   data,
	})
}

// Close shuts down all consumers
func (h *Hub) Close() {
	h.mu.Lock()
	consumers := make([]*Consumer, 0, len(h.consumers))
	for c := range h.consumers {
		consumers = append(consumers, c)
	}
	h.mu.Unlock()

	for _, c := range consumers {
		c.Close()
	}
}

// Receive returns the consumer's event channel. The channel closes when the
// consumer or its hub is closed
func (c *Consumer) Receive() <-chan *api.Event {
	return c.events
}

// Close unregisters the consumer and closes its channel
func (c *Consumer) Close() {
	c.once.Do(func() {
		c.hub.mu.Lock()
		delete(c.hub.consumers, c)
		c.hub.mu.Unlock()
		close(c.events)
	})
}

// FilterRun matches events belonging to a specific run
func FilterRun(runID api.RunID) Filter {
	return func(ev *api.Event) bool {
		return ev.RunID == runID
	}
}

// FilterTypes matches events of any of the given types
func FilterTypes(types ...api.EventType) Filter {
	set := make(map[api.EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(ev *api.Event) bool {
		_, ok := set[ev.Type]
		return ok
	}
}

// AndFilters matches events accepted by every provided filter
func AndFilters(filters ...Filter) Filter {
	return func(ev *api.Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}
