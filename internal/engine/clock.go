package engine

import "time"

// Clock provides the current time for log entries and completion results
type Clock func() time.Time

// Now returns the current wall time from the Engine's configured clock
func (e *Engine) Now() time.Time {
	return e.clock()
}
