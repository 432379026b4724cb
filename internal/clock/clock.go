// Package clock supplies the booking calendar's notion of "today".
//
// All reservation rules compare days, never instants. A day is represented as
// a time.Time at midnight in the booking location.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock reports the current booking day.
type Clock interface {
	Today() time.Time
	Location() *time.Location
}

// Overridable is a wall clock whose current day can be pinned for testing
// and demonstrations.
type Overridable struct {
	loc *time.Location
	now func() time.Time

	mu       sync.RWMutex
	override *time.Time
}

// New returns a clock reading now in loc. Nil arguments fall back to UTC and
// time.Now.
func New(loc *time.Location, now func() time.Time) *Overridable {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Overridable{loc: loc, now: now}
}

// Today returns the pinned day when set, otherwise midnight of the current
// instant in the clock's location.
func (c *Overridable) Today() time.Time {
	c.mu.RLock()
	pinned := c.override
	c.mu.RUnlock()
	if pinned != nil {
		return *pinned
	}
	return Normalize(c.now(), c.loc)
}

// Now returns the current instant. It ignores the override.
func (c *Overridable) Now() time.Time {
	return c.now()
}

// Location returns the booking location.
func (c *Overridable) Location() *time.Location {
	return c.loc
}

// SetOverride pins Today to day. A nil day clears the override.
func (c *Overridable) SetOverride(day *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if day == nil {
		c.override = nil
		return
	}
	normalized := Normalize(*day, c.loc)
	c.override = &normalized
}

// Override returns the pinned day, if any.
func (c *Overridable) Override() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override == nil {
		return time.Time{}, false
	}
	return *c.override, true
}

// Normalize truncates t to midnight of its calendar day in loc.
func Normalize(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDay parses a calendar day given either as 2006-01-02 or as an RFC 3339
// timestamp and returns it normalized to loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock: invalid day %q", s)
	}
	return Normalize(t, loc), nil
}
