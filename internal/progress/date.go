package progress

import "time"

// WeekStart is the first day of a user's week. Weekly miss counters reset on it.
const WeekStart = time.Monday

// DateOf returns the calendar day of t, in t's own location, as 00:00 UTC.
// All ledger dates and date comparisons use this form.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// IsWeekStart reports whether day is the first day of the week.
func IsWeekStart(day time.Time) bool {
	return day.Weekday() == WeekStart
}

// Clock resolves "now" and the local calendar day.
type Clock interface {
	Now() time.Time
	Today(loc *time.Location) time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (c SystemClock) Today(loc *time.Location) time.Time {
	return today(c.Now(), loc)
}

// FixedClock always reports At. Used by tests and replays.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

func (c FixedClock) Today(loc *time.Location) time.Time {
	return today(c.At, loc)
}

func today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}
