// Package clock abstracts "now" so date-sensitive aggregation can be tested.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// DateOf returns the calendar date of t as observed in loc, encoded as
// midnight UTC. Two instants on the same local day map to equal values.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is DateOf(c.Now(), loc).
func Today(c Clock, loc *time.Location) time.Time {
	return DateOf(c.Now(), loc)
}
