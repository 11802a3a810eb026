// internal/app/clock.go
package app

import "time"

const dayLayout = "2006-01-02"

// Clock resolves "now" and calendar days in the application's fixed timezone.
// Stored timestamps may be UTC or carry a time of day, so every day comparison
// goes through DayString or DayStart.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	return &Clock{loc: loc, now: time.Now}
}

// NewFixedClock returns a clock that always reports t.
func NewFixedClock(loc *time.Location, t time.Time) *Clock {
	return &Clock{loc: loc, now: func() time.Time { return t }}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant in the clock's timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// DayString returns t's local calendar day as YYYY-MM-DD.
func (c *Clock) DayString(t time.Time) string {
	return t.In(c.loc).Format(dayLayout)
}

// DayStart returns local midnight of t's local calendar day.
func (c *Clock) DayStart(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.loc)
}

// DayRange returns [start, end) of t's local calendar day.
func (c *Clock) DayRange(t time.Time) (time.Time, time.Time) {
	start := c.DayStart(t)
	return start, start.AddDate(0, 0, 1)
}

// Weekday returns t's local weekday.
func (c *Clock) Weekday(t time.Time) time.Weekday {
	return t.In(c.loc).Weekday()
}
