package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/remedy/internal/engine"
	"github.com/kode4food/remedy/pkg/api"
)

func TestExecutionLogAppend(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := engine.NewExecutionLog(func() time.Time { return base })

	first := l.Append(api.LogInfo, 1, "Executing step 1: check")
	second := l.Append(api.LogSuccess, 1, "Step 1 completed")

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, base, first.Timestamp)
	assert.Equal(t, 1, second.Step)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.Count(api.LogSuccess))
	assert.Equal(t, 0, l.Count(api.LogError))
}

func TestExecutionLogClampsTimestamps(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(-time.Minute),
		base.Add(time.Second),
		base.Add(-time.Hour),
	}
	var i int
	l := engine.NewExecutionLog(func() time.Time {
		res := times[i]
		i++
		return res
	})

	for range times {
		l.Append(api.LogInfo, 0, "tick")
	}

	entries := l.Entries()
	assert.Equal(t, base, entries[0].Timestamp)
	assert.Equal(t, base, entries[1].Timestamp)
	assert.Equal(t, base.Add(time.Second), entries[2].Timestamp)
	assert.Equal(t, base.Add(time.Second), entries[3].Timestamp)
}

func TestExecutionLogEntriesIsCopy(t *testing.T) {
	l := engine.NewExecutionLog(nil)
	l.Append(api.LogWarning, 2, "Fallback: call the customer")

	entries := l.Entries()
	entries[0].Message = "changed"
	assert.Equal(t, "Fallback: call the customer", l.Entries()[0].Message)
}
