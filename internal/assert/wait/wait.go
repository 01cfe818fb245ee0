package wait

import (
	"testing"
	"time"

	"github.com/kode4food/remedy/internal/engine"
	"github.com/kode4food/remedy/pkg/api"
	"github.com/kode4food/remedy/pkg/util"
)

type (
	Wait struct {
		t        *testing.T
		consumer engine.EventConsumer
		timeout  time.Duration
	}

	EventFilter func(*api.Event) bool
)

const DefaultTimeout = time.Second * 5

func On(t *testing.T, consumer engine.EventConsumer) *Wait {
	return &Wait{
		t:        t,
		consumer: consumer,
		timeout:  DefaultTimeout,
	}
}

func (w *Wait) WithTimeout(timeout time.Duration) *Wait {
	res := *w
	res.timeout = timeout
	return &res
}

// ForEvents waits for matching events from the consumer and returns them
func (w *Wait) ForEvents(count int, filter EventFilter) []*api.Event {
	w.t.Helper()

	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	var res []*api.Event
	for len(res) < count {
		select {
		case ev, ok := <-w.consumer.Receive():
			if !ok {
				w.t.Fatalf(
					"event consumer closed before receiving %d events", count,
				)
			}
			if !filter(ev) {
				continue
			}
			res = append(res, ev)
		case <-deadline.C:
			w.t.Fatalf("timeout waiting for %d events", count)
		}
	}
	return res
}

// ForEvent waits for a single matching event
func (w *Wait) ForEvent(filter EventFilter) *api.Event {
	w.t.Helper()
	return w.ForEvents(1, filter)[0]
}

// And composes event filters and returns true when all match
func And(filters ...EventFilter) EventFilter {
	return func(ev *api.Event) bool {
		for _, filter := range filters {
			if !filter(ev) {
				return false
			}
		}
		return true
	}
}

// Or composes event filters and returns true when any match
func Or(filters ...EventFilter) EventFilter {
	return func(ev *api.Event) bool {
		for _, filter := range filters {
			if filter(ev) {
				return true
			}
		}
		return false
	}
}

// Type creates a filter for a single event type
func Type(eventType api.EventType) EventFilter {
	return Types(eventType)
}

// Types creates a filter for the given event types
func Types(eventTypes ...api.EventType) EventFilter {
	lookup := util.SetOf(eventTypes...)
	return func(ev *api.Event) bool {
		return ev != nil && lookup.Contains(ev.Type)
	}
}

// RunID matches events raised for the given run
func RunID(id api.RunID) EventFilter {
	return func(ev *api.Event) bool {
		return ev != nil && ev.RunID == id
	}
}

// StepStarted matches the start of the step with the given order
func StepStarted(order int) EventFilter {
	return And(Type(api.EventTypeStepStarted),
		Data(func(data api.StepStartedEvent) bool {
			return data.Order == order
		}))
}

// StepSucceeded matches the success of the step with the given order
func StepSucceeded(order int) EventFilter {
	return And(Type(api.EventTypeStepSucceeded),
		Data(func(data api.StepSucceededEvent) bool {
			return data.Order == order
		}))
}

// StepFailed matches the failure of the step with the given order
func StepFailed(order int) EventFilter {
	return And(Type(api.EventTypeStepFailed),
		Data(func(data api.StepFailedEvent) bool {
			return data.Order == order
		}))
}

// StepResolved matches either outcome of the step with the given order
func StepResolved(order int) EventFilter {
	return Or(StepSucceeded(order), StepFailed(order))
}

// WorkflowCompleted matches the completion of any run
func WorkflowCompleted() EventFilter {
	return Type(api.EventTypeWorkflowCompleted)
}

// Data creates a filter that applies pred to typed event data
func Data[T any](pred func(T) bool) EventFilter {
	return func(ev *api.Event) bool {
		if ev == nil {
			return false
		}
		data, ok := ev.Data.(T)
		return ok && pred(data)
	}
}
