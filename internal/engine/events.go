package engine

import (
	"sync"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/remedy/pkg/api"
)

type (
	// EventHub fans engine events out to any number of consumers
	EventHub struct {
		topic  topic.Topic[*api.Event]
		prod   topic.Producer[*api.Event]
		mu     sync.RWMutex
		closed bool
	}

	// EventConsumer receives events published on an EventHub
	EventConsumer = topic.Consumer[*api.Event]
)

// NewEventHub creates an EventHub backed by a caravan topic
func NewEventHub() *EventHub {
	t := caravan.NewTopic[*api.Event]()
	return &EventHub{
		topic: t,
		prod:  t.NewProducer(),
	}
}

// NewConsumer subscribes to events published from now on. Callers must
// Close the consumer when done
func (h *EventHub) NewConsumer() EventConsumer {
	return h.topic.NewConsumer()
}

// Publish sends an event to all consumers. Events published after Close are
// dropped
func (h *EventHub) Publish(ev *api.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	message.Send(h.prod, ev)
}

// Close stops the hub's producer
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.prod.Close()
}
