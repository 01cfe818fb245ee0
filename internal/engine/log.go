package engine

import (
	"time"

	"github.com/kode4food/remedy/pkg/api"
)

type (
	// ExecutionLog is the append-only audit trail of engine activity for one
	// loaded plan
	ExecutionLog struct {
		seq     *logSequence
		entries []api.LogEntry
	}

	// logSequence hands out entry ids and timestamps. One sequence outlives
	// every ExecutionLog an Engine creates, so ids never repeat
	logSequence struct {
		clock Clock
		last  time.Time
		id    int64
	}
)

// NewExecutionLog creates an empty log with its own id sequence
func NewExecutionLog(clock Clock) *ExecutionLog {
	return newExecutionLog(newLogSequence(clock))
}

func newExecutionLog(seq *logSequence) *ExecutionLog {
	return &ExecutionLog{seq: seq}
}

func newLogSequence(clock Clock) *logSequence {
	if clock == nil {
		clock = time.Now
	}
	return &logSequence{clock: clock}
}

// Append records a new entry and returns it. step is the order of the step
// the entry concerns, or 0 for workflow-level entries
func (l *ExecutionLog) Append(
	level api.LogLevel, step int, msg string,
) api.LogEntry {
	id, ts := l.seq.next()
	entry := api.LogEntry{
		ID:        id,
		Timestamp: ts,
		Level:     level,
		Message:   msg,
		Step:      step,
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a copy of the log in append order
func (l *ExecutionLog) Entries() []api.LogEntry {
	res := make([]api.LogEntry, len(l.entries))
	copy(res, l.entries)
	return res
}

// Len returns the number of entries
func (l *ExecutionLog) Len() int {
	return len(l.entries)
}

// Count returns the number of entries with the given level
func (l *ExecutionLog) Count(level api.LogLevel) int {
	var res int
	for _, e := range l.entries {
		if e.Level == level {
			res++
		}
	}
	return res
}

func (s *logSequence) next() (int64, time.Time) {
	s.id++
	now := s.clock()
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	return s.id, now
}
