package engine

import (
	"log/slog"

	"github.com/kode4food/remedy/pkg/api"
)

// tx collects the side effects of one locked engine mutation so they can be
// released in order once the lock is dropped
type tx struct {
	e          *Engine
	events     []*api.Event
	completion *api.CompletionResult
}

// transact runs fn under the engine lock. Events raised by fn are published
// in order after the lock is released, and the completion callback runs
// last. A non-nil error from fn discards everything it raised
func (e *Engine) transact(fn func(*tx) error) error {
	t := &tx{e: e}
	e.mu.Lock()
	err := fn(t)
	e.pubMu.Lock()
	e.mu.Unlock()
	if err != nil {
		e.pubMu.Unlock()
		return err
	}
	for _, ev := range t.events {
		e.hub.Publish(ev)
	}
	e.pubMu.Unlock()

	if t.completion != nil {
		e.complete(*t.completion)
	}
	return nil
}

func (t *tx) raise(id api.RunID, typ api.EventType, data any) {
	t.events = append(t.events, &api.Event{
		Timestamp: t.e.clock(),
		Type:      typ,
		RunID:     id,
		Data:      data,
	})
}

func (t *tx) log(r *run, level api.LogLevel, step int, msg string) {
	entry := r.log.Append(level, step, msg)
	t.raise(r.id, api.EventTypeLogAppended, entry)
}

func (e *Engine) complete(res api.CompletionResult) {
	if e.onComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Completion callback panic",
				slog.Any("panic", r))
		}
	}()
	e.onComplete(res)
}
