package ics_test

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/ics"
)

func testState() *domain.State {
	group := "group-1"
	created := time.Date(2024, time.April, 1, 8, 0, 0, 0, time.UTC)
	return &domain.State{
		Members: []*domain.Member{{ID: "m1", Name: "Mom", Color: "#ff8800"}},
		Events: []*domain.Event{
			{ID: "trip", MemberID: "m1", Title: "Trip", Date: "2024-05-01", EndDate: "2024-05-03", Repeat: domain.RepeatNone, CreatedAt: created},
			{ID: "dentist", MemberID: "m1", Title: "Dentist &amp; checkup", Date: "2024-05-02", StartTime: "09:30", EndTime: "10:15", Memo: "<p>bring card</p>", Repeat: domain.RepeatNone, CreatedAt: created},
			{ID: "swim-1", MemberID: domain.SharedMemberID, Title: "Swim", Date: "2024-05-06", StartTime: "17:00", Repeat: domain.RepeatWeekly, RepeatEnd: "2024-05-13", RepeatGroup: &group, CreatedAt: created},
			{ID: "holiday", MemberID: domain.SharedMemberID, Title: "Holiday", Date: "2024-05-05", AllDay: true, Repeat: domain.RepeatNone, CreatedAt: created},
		},
	}
}

func parse(t *testing.T, out string) map[string]*ical.VEvent {
	t.Helper()
	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar error = %v\n%s", err, out)
	}
	events := make(map[string]*ical.VEvent)
	for _, ve := range cal.Events() {
		events[ve.Id()] = ve
	}
	return events
}

func prop(t *testing.T, ve *ical.VEvent, name ical.ComponentProperty) *ical.IANAProperty {
	t.Helper()
	p := ve.GetProperty(name)
	if p == nil {
		t.Fatalf("event %s has no %s", ve.Id(), name)
	}
	return p
}

func isDateValue(p *ical.IANAProperty) bool {
	vs := p.ICalParameters["VALUE"]
	return len(vs) > 0 && strings.EqualFold(vs[0], "DATE")
}

func TestExport(t *testing.T) {
	out := ics.Export(testState(), ics.Options{
		Name:  "Family",
		Stamp: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	events := parse(t, out)
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}

	t.Run("span uses exclusive date end", func(t *testing.T) {
		ve := events["trip"]
		start := prop(t, ve, ical.ComponentPropertyDtStart)
		end := prop(t, ve, ical.ComponentPropertyDtEnd)
		if start.Value != "20240501" || !isDateValue(start) {
			t.Errorf("DTSTART = %s %v", start.Value, start.ICalParameters)
		}
		if end.Value != "20240504" || !isDateValue(end) {
			t.Errorf("DTEND = %s %v", end.Value, end.ICalParameters)
		}
		if got := prop(t, ve, "CATEGORIES").Value; got != "Mom" {
			t.Errorf("CATEGORIES = %s, want Mom", got)
		}
	})

	t.Run("timed event uses floating times", func(t *testing.T) {
		ve := events["dentist"]
		if got := prop(t, ve, ical.ComponentPropertyDtStart).Value; got != "20240502T093000" {
			t.Errorf("DTSTART = %s", got)
		}
		if got := prop(t, ve, ical.ComponentPropertyDtEnd).Value; got != "20240502T101500" {
			t.Errorf("DTEND = %s", got)
		}
		if got := prop(t, ve, ical.ComponentPropertySummary).Value; got != "Dentist & checkup" {
			t.Errorf("SUMMARY = %q", got)
		}
		if got := prop(t, ve, ical.ComponentPropertyDescription).Value; got != "bring card" {
			t.Errorf("DESCRIPTION = %q", got)
		}
	})

	t.Run("grouped instance is related to its group", func(t *testing.T) {
		ve := events["swim-1"]
		if got := prop(t, ve, "RELATED-TO").Value; got != "group-1" {
			t.Errorf("RELATED-TO = %s", got)
		}
		if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
			t.Error("event without end time has DTEND")
		}
		if got := prop(t, ve, "CATEGORIES").Value; got != domain.SharedMemberName {
			t.Errorf("CATEGORIES = %s, want shared member name", got)
		}
	})

	t.Run("all day", func(t *testing.T) {
		ve := events["holiday"]
		end := prop(t, ve, ical.ComponentPropertyDtEnd)
		if end.Value != "20240506" || !isDateValue(end) {
			t.Errorf("DTEND = %s %v", end.Value, end.ICalParameters)
		}
	})
}

func TestExportMemberFilter(t *testing.T) {
	events := parse(t, ics.Export(testState(), ics.Options{MemberID: "m1"}))
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events["trip"] == nil || events["dentist"] == nil {
		t.Errorf("unexpected events: %v", events)
	}
}

func TestExportDropsInvertedEnd(t *testing.T) {
	state := &domain.State{Events: []*domain.Event{
		{ID: "late", MemberID: domain.SharedMemberID, Title: "Late", Date: "2024-05-02", StartTime: "18:00", EndTime: "09:00", Repeat: domain.RepeatNone},
		{ID: "overnight", MemberID: domain.SharedMemberID, Title: "Overnight", Date: "2024-05-02", EndDate: "2024-05-03", StartTime: "22:00", EndTime: "06:00", Repeat: domain.RepeatNone},
	}}
	events := parse(t, ics.Export(state, ics.Options{}))

	if events["late"].GetProperty(ical.ComponentPropertyDtEnd) != nil {
		t.Error("same-day event ending before it starts has DTEND")
	}
	if got := prop(t, events["overnight"], ical.ComponentPropertyDtEnd).Value; got != "20240503T060000" {
		t.Errorf("overnight DTEND = %s", got)
	}
}
