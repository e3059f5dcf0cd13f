package access

import (
	"math"
	"time"

	"github.com/jinzhu/now"
)

// Day returns midnight of t's calendar date in t's location.
func Day(t time.Time) time.Time {
	return now.With(t).BeginningOfDay()
}

// FirstOfNextMonth is the fixed billing-cycle due date for t.
func FirstOfNextMonth(t time.Time) time.Time {
	return now.With(t).BeginningOfMonth().AddDate(0, 1, 0)
}

// civil re-reads the calendar date of t as midnight in loc. Dates read from
// the database arrive as UTC midnight and must keep their year/month/day.
func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DateIn returns the calendar date of t as midnight in loc, keeping its
// year, month and day. Use it for DATE columns, which arrive as UTC midnight.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return civil(t, loc)
}

// DaysBetween counts calendar days from a to b, rounded up. Both sides are
// compared by their civil dates so DST transitions do not shift the count.
func DaysBetween(a, b time.Time) int {
	from := civil(a, time.UTC)
	to := civil(b, time.UTC)
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}
