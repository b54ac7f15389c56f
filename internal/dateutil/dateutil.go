// Package dateutil converts between calendar dates and their canonical
// YYYY-MM-DD keys and performs calendar arithmetic on them.
//
// Dates are civil dates: a time.Time is reduced to its own year, month and day,
// and values produced here are midnight UTC so arithmetic never crosses a DST
// boundary. Keys compare lexicographically in date order.
package dateutil

import (
	"fmt"
	"time"
)

// KeyLayout is the layout of a date key.
const KeyLayout = "2006-01-02"

// Unit is a step size for Advance.
type Unit int

const (
	Day Unit = iota
	Week
	Fortnight
	Month
	Year
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Fortnight:
		return "fortnight"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Date returns midnight UTC of the given civil date. Out-of-range values
// normalize the way time.Date does.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock and location of t, keeping t's own year, month and day.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ToKey returns the YYYY-MM-DD key of t's year, month and day in t's location.
func ToKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// FromKey parses a date key. It accepts exactly the strings ToKey produces for
// years 0000-9999, so ToKey(FromKey(s)) == s for every key it accepts.
func FromKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", s, err)
	}
	if ToKey(t) != s {
		return time.Time{}, fmt.Errorf("invalid date key %q", s)
	}
	return t, nil
}

// ValidKey reports whether s is a well-formed date key for an existing date.
func ValidKey(s string) bool {
	_, err := FromKey(s)
	return err == nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// Advance adds n units to t.
//
// Day, Week and Fortnight add 1, 7 and 14 days per unit. Month and Year move
// the calendar month and keep the day of month, clamping it to the last day of
// the target month when that day does not exist: Jan 31 + 1 month is Feb 29 in
// a leap year and Feb 28 otherwise, and Feb 29 + 1 year is Feb 28.
func Advance(t time.Time, unit Unit, n int) time.Time {
	t = Truncate(t)
	switch unit {
	case Day:
		return t.AddDate(0, 0, n)
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Fortnight:
		return t.AddDate(0, 0, 14*n)
	case Month:
		return addMonthsClamped(t, n)
	case Year:
		return addMonthsClamped(t, 12*n)
	default:
		panic(fmt.Sprintf("dateutil: unknown unit %v", unit))
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := Date(y, m+time.Month(months), 1)
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return Date(first.Year(), first.Month(), d)
}

// DaysBetween returns the number of days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}
