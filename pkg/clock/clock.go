// Package clock supplies the time source used by date-dependent validators.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// Year returns the current calendar year of c, falling back to the system
// clock when c is nil.
func Year(c Clock) int {
	if c == nil {
		return time.Now().Year()
	}
	return c.Now().Year()
}

// Fake is a settable clock for tests and demos.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFake creates a fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// AtYear creates a fake clock pinned to the first of June of year.
func AtYear(year int) *Fake {
	return NewFake(time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC))
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}
