package data

import "time"

// TimeProvider supplies timestamps written by repositories.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the system clock.
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider returns a settable instant. Used by tests.
type FixedTimeProvider struct {
	t time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider at t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{t: t}
}

func (f *FixedTimeProvider) Now() time.Time { return f.t }

// Advance moves the fixed time forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) { f.t = f.t.Add(d) }
