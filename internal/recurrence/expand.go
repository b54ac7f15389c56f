// Package recurrence expands a recurrence rule into the concrete dates an
// event occurs on.
package recurrence

import (
	"fmt"
	"time"

	"github.com/bcnelson/household-calendar/internal/dateutil"
	"github.com/bcnelson/household-calendar/internal/domain"
)

// MaxIterations caps how many steps past the seed date are generated, so a
// result holds at most MaxIterations+1 dates. It is a safety limit against
// far-away end bounds, not a calendar rule.
const MaxIterations = 365

// Step returns the calendar unit and count one occurrence of rule advances by.
// ok is false for RepeatNone and unknown rules.
func Step(rule domain.Repeat) (unit dateutil.Unit, n int, ok bool) {
	switch rule {
	case domain.RepeatDaily:
		return dateutil.Day, 1, true
	case domain.RepeatWeekly:
		return dateutil.Week, 1, true
	case domain.RepeatBiweekly:
		return dateutil.Fortnight, 1, true
	case domain.RepeatMonthly:
		return dateutil.Month, 1, true
	case domain.RepeatYearly:
		return dateutil.Year, 1, true
	default:
		return 0, 0, false
	}
}

// Expand returns the ordered dates an event starting on start occurs on under
// rule, up to and including end.
//
// The seed is always the first element. With no rule or no end bound the
// result is exactly [start]. Every candidate is computed from the seed rather
// than from the previous candidate, so month-end clamping never drifts
// (Jan 31 monthly gives Feb 29, Mar 31, Apr 30).
func Expand(start time.Time, rule domain.Repeat, end *time.Time) []time.Time {
	start = dateutil.Truncate(start)
	dates := []time.Time{start}

	unit, n, ok := Step(rule)
	if !ok || end == nil {
		return dates
	}
	bound := dateutil.Truncate(*end)

	for i := 1; i <= MaxIterations; i++ {
		next := dateutil.Advance(start, unit, i*n)
		if next.After(bound) {
			break
		}
		dates = append(dates, next)
	}
	return dates
}

// ExpandKeys is Expand over date keys. An empty endKey means no end bound.
func ExpandKeys(startKey string, rule domain.Repeat, endKey string) ([]string, error) {
	start, err := dateutil.FromKey(startKey)
	if err != nil {
		return nil, fmt.Errorf("start date: %w", err)
	}

	var end *time.Time
	if endKey != "" {
		e, err := dateutil.FromKey(endKey)
		if err != nil {
			return nil, fmt.Errorf("repeat end: %w", err)
		}
		end = &e
	}

	dates := Expand(start, rule, end)
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = dateutil.ToKey(d)
	}
	return keys, nil
}
