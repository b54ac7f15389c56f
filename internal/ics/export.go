// Package ics renders calendar state as an iCalendar (RFC 5545) feed.
package ics

import (
	"html"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/bcnelson/household-calendar/internal/dateutil"
	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

const (
	productID      = "-//household-calendar//calendar feed//EN"
	dateTimeLayout = "20060102T150405"
)

// Property names without a named constant in the library.
const (
	propRelatedTo  = ical.ComponentProperty("RELATED-TO")
	propCategories = ical.ComponentProperty("CATEGORIES")
)

var plainText = bluemonday.StrictPolicy()

// Options controls an export.
type Options struct {
	// Name is the calendar display name.
	Name string
	// MemberID restricts the feed to one member's events when set.
	MemberID string
	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
}

// Export renders the events in state as an iCalendar document.
//
// All-day events and events without a start time are written with DATE
// values and an exclusive DTEND. Timed events use floating local times, since
// events carry no time zone. Grouped instances point at their group with
// RELATED-TO.
func Export(state *domain.State, opts Options) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	names := map[string]string{domain.SharedMemberID: domain.SharedMemberName}
	for _, m := range state.Members {
		names[m.ID] = m.Name
	}

	stamp := opts.Stamp.UTC()
	for _, ev := range state.Events {
		if opts.MemberID != "" && ev.MemberID != opts.MemberID {
			continue
		}
		addEvent(cal, ev, names[ev.MemberID], stamp)
	}

	return cal.Serialize()
}

func addEvent(cal *ical.Calendar, ev *domain.Event, memberName string, stamp time.Time) {
	start, err := dateutil.FromKey(ev.Date)
	if err != nil {
		return
	}
	last, err := dateutil.FromKey(ev.LastDate())
	if err != nil {
		last = start
	}

	ve := cal.AddEvent(ev.ID)
	ve.SetDtStampTime(stamp)
	ve.SetCreatedTime(ev.CreatedAt.UTC())
	ve.SetSummary(toPlain(ev.Title))
	if memo := toPlain(ev.Memo); memo != "" {
		ve.SetDescription(memo)
	}
	if memberName != "" {
		ve.SetProperty(propCategories, memberName)
	}
	if ev.Grouped() {
		ve.SetProperty(propRelatedTo, *ev.RepeatGroup)
	}

	if ev.AllDay || ev.StartTime == "" {
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(dateutil.Advance(last, dateutil.Day, 1))
		return
	}

	begin := atClock(start, ev.StartTime)
	ve.SetProperty(ical.ComponentPropertyDtStart, begin.Format(dateTimeLayout))
	if ev.EndTime != "" {
		// An end before the start is dropped rather than written as an inverted range.
		if end := atClock(last, ev.EndTime); !end.Before(begin) {
			ve.SetProperty(ical.ComponentPropertyDtEnd, end.Format(dateTimeLayout))
		}
	} else if !last.Equal(start) {
		ve.SetProperty(ical.ComponentPropertyDtEnd, atClock(last, ev.StartTime).Format(dateTimeLayout))
	}
}

// atClock returns day at the HH:MM clock time.
func atClock(day time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

// toPlain strips markup and decodes entities for plain-text iCalendar fields.
func toPlain(s string) string {
	return html.UnescapeString(plainText.Sanitize(s))
}
