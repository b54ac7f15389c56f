package domain

import (
	"fmt"
	"time"
)

// Repeat is a recurrence rule.
type Repeat string

const (
	RepeatNone     Repeat = "none"
	RepeatDaily    Repeat = "daily"
	RepeatWeekly   Repeat = "weekly"
	RepeatBiweekly Repeat = "biweekly"
	RepeatMonthly  Repeat = "monthly"
	RepeatYearly   Repeat = "yearly"
)

// ParseRepeat parses a recurrence rule. An empty string means RepeatNone.
func ParseRepeat(s string) (Repeat, error) {
	switch r := Repeat(s); r {
	case "":
		return RepeatNone, nil
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatBiweekly, RepeatMonthly, RepeatYearly:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown repeat rule %q", ErrInvalidInput, s)
	}
}

// Scope selects which instances of a group a scoped update or delete affects.
type Scope string

const (
	ScopeThis   Scope = "this"
	ScopeFuture Scope = "future"
	ScopeAll    Scope = "all"
)

// ParseScope parses the mode query parameter. An empty string means ScopeThis.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case "":
		return ScopeThis, nil
	case ScopeThis, ScopeFuture, ScopeAll:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// Event is one concrete occurrence record. Instances created from one recurrence
// request share a RepeatGroup.
type Event struct {
	ID          string    `json:"id" db:"id" yaml:"id"`
	MemberID    string    `json:"memberId" db:"member_id" yaml:"memberId"`
	Title       string    `json:"title" db:"title" yaml:"title"`
	Date        string    `json:"date" db:"date" yaml:"date"`
	EndDate     string    `json:"endDate" db:"end_date" yaml:"endDate"`
	AllDay      bool      `json:"allDay" db:"all_day" yaml:"allDay"`
	StartTime   string    `json:"startTime" db:"start_time" yaml:"startTime"`
	EndTime     string    `json:"endTime" db:"end_time" yaml:"endTime"`
	Memo        string    `json:"memo" db:"memo" yaml:"memo"`
	Repeat      Repeat    `json:"repeat" db:"repeat" yaml:"repeat"`
	RepeatEnd   string    `json:"repeatEnd" db:"repeat_end" yaml:"repeatEnd"`
	RepeatGroup *string   `json:"repeatGroup" db:"repeat_group" yaml:"repeatGroup"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" yaml:"createdAt"`
}

// Grouped reports whether the instance belongs to a recurring group.
func (e *Event) Grouped() bool {
	return e.RepeatGroup != nil && *e.RepeatGroup != ""
}

// InGroup reports whether the instance belongs to the given group.
func (e *Event) InGroup(groupID string) bool {
	return e.Grouped() && *e.RepeatGroup == groupID
}

// LastDate returns the final date key the instance occurs on.
// An end date earlier than the start date is ignored.
func (e *Event) LastDate() string {
	if e.EndDate != "" && e.EndDate >= e.Date {
		return e.EndDate
	}
	return e.Date
}

// OccursOn reports whether the instance occurs on the given date key, taking
// multi-day spans into account.
func (e *Event) OccursOn(key string) bool {
	return key >= e.Date && key <= e.LastDate()
}

// Overlaps reports whether the instance occurs on any date in [from, to].
func (e *Event) Overlaps(from, to string) bool {
	return e.Date <= to && e.LastDate() >= from
}

// Clone returns a deep copy of the instance.
func (e *Event) Clone() *Event {
	c := *e
	if e.RepeatGroup != nil {
		g := *e.RepeatGroup
		c.RepeatGroup = &g
	}
	return &c
}

// CreateEventRequest is the request body for creating an event.
type CreateEventRequest struct {
	MemberID  string `json:"memberId"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	EndDate   string `json:"endDate,omitempty"`
	AllDay    bool   `json:"allDay,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Memo      string `json:"memo,omitempty"`
	Repeat    string `json:"repeat,omitempty"`
	RepeatEnd string `json:"repeatEnd,omitempty"`
}

// CreateEventResponse reports how many instances a create produced.
type CreateEventResponse struct {
	Count int `json:"count"`
}

// EventPatch is a partial field set for scoped updates. Nil fields are left unchanged.
type EventPatch struct {
	Title     *string `json:"title,omitempty"`
	Date      *string `json:"date,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
	AllDay    *bool   `json:"allDay,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Memo      *string `json:"memo,omitempty"`
	MemberID  *string `json:"memberId,omitempty"`
}

// WithoutDate returns a copy of the patch that never moves an instance's date.
func (p EventPatch) WithoutDate() EventPatch {
	p.Date = nil
	return p
}

// Apply writes the patch onto ev. When the resulting instance is all-day its
// time fields are cleared and any supplied times are ignored.
func (p EventPatch) Apply(ev *Event) {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.EndDate != nil {
		ev.EndDate = *p.EndDate
	}
	if p.AllDay != nil {
		ev.AllDay = *p.AllDay
	}
	if ev.AllDay {
		ev.StartTime = ""
		ev.EndTime = ""
	} else {
		if p.StartTime != nil {
			ev.StartTime = *p.StartTime
		}
		if p.EndTime != nil {
			ev.EndTime = *p.EndTime
		}
	}
	if p.Memo != nil {
		ev.Memo = *p.Memo
	}
	if p.MemberID != nil {
		ev.MemberID = *p.MemberID
	}
}

// OKResponse is returned by mutations without a more specific body.
type OKResponse struct {
	OK bool `json:"ok"`
}
