// Package clock provides an injectable time source so time-dependent
// business rules can be tested deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock is the interface for reading the current time
type Clock interface {
	// Now returns the current time
	Now() time.Time
}

// System is a Clock backed by the wall clock
type System struct{}

// NewSystem creates a new system clock
func NewSystem() System {
	return System{}
}

// Now returns the current wall-clock time in UTC
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock pinned to a settable instant, for deterministic tests
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed creates a Fixed clock at the given instant
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the pinned instant
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Advance moves the pinned instant forward
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// Set pins the clock to a new instant
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

// LocalDate formats t as a YYYY-MM-DD calendar date in the given location.
// Saved-time and grace-period bookkeeping compare these date strings, so
// "today" always means the vendor's local day, not UTC.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
