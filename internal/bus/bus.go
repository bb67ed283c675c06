// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus provides the synchronous in-process event bus decoupling the
// recording orchestrator from its observers.
package bus

import (
	"sync"

	"github.com/ManuGH/multirec/internal/log"
	"github.com/ManuGH/multirec/internal/metrics"
)

// Event is an opaque event payload. Publishers and subscribers agree on
// concrete types per topic.
type Event interface{}

// Handler consumes one event. Delivery is synchronous on the publishing
// goroutine; handlers must not block.
type Handler func(Event)

// Subscription identifies one registered handler for later removal.
type Subscription struct {
	topic string
	id    uint64
}

type entry struct {
	id uint64
	fn Handler
}

// Bus dispatches events to handlers in registration order, synchronously,
// on the publishing tick.
//
// Interface invariant: a panicking handler is recovered, logged and counted.
// The panic never reaches other handlers or the publisher.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]entry
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]entry)}
}

// Subscribe registers a handler for a topic and returns its subscription.
// Handlers on the same topic fire in registration order.
func (b *Bus) Subscribe(topic string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[topic] = append(b.subs[topic], entry{id: b.nextID, fn: h})
	return Subscription{topic: topic, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. Unknown subscriptions
// are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lst := b.subs[sub.topic]
	out := lst[:0]
	for _, e := range lst {
		if e.id != sub.id {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		delete(b.subs, sub.topic)
	} else {
		b.subs[sub.topic] = out
	}
}

// Publish delivers the event to every handler of the topic, in registration
// order, before returning.
func (b *Bus) Publish(topic string, ev Event) {
	b.mu.Lock()
	handlers := append([]entry(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, e := range handlers {
		dispatch(topic, e.fn, ev)
	}
}

// Clear removes every handler registered for a topic.
func (b *Bus) Clear(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, topic)
}

// Reset removes all handlers on all topics.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]entry)
}

func dispatch(topic string, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncBusHandlerPanic(topic)
			logger := log.WithComponent("bus")
			logger.Error().
				Str("topic", topic).
				Interface("panic", r).
				Msg("event handler panicked; suppressed")
		}
	}()
	h(ev)
}
