// Package validation provides validation and input cleanup for calendar members and events.
package validation

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bcnelson/household-calendar/internal/dateutil"
	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxMemberNameLength is the maximum member name length in runes.
	MaxMemberNameLength = 20
	// MaxTitleLength is the maximum event title length in runes.
	MaxTitleLength = 200
	// MaxMemoLength is the maximum memo length in runes, measured before sanitizing.
	MaxMemoLength = 2000
)

var (
	colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	timePattern  = regexp.MustCompile(`^(?:[01][0-9]|2[0-3]):[0-5][0-9]$`)

	titlePolicy = bluemonday.StrictPolicy()
	memoPolicy  = bluemonday.UGCPolicy()
)

// ValidateMemberName validates a member name as it will be stored, with
// surrounding space trimmed. Names must be non-empty, at most
// MaxMemberNameLength runes, and must not collide with the shared pseudo-member.
func ValidateMemberName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxMemberNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxMemberNameLength)
	}
	if domain.IsReservedMember(name) {
		return fmt.Errorf("name %q is reserved", name)
	}
	return nil
}

// ValidateColor validates a CSS hex color (#rgb or #rrggbb).
func ValidateColor(color string) error {
	if color == "" {
		return fmt.Errorf("color is required")
	}
	if !colorPattern.MatchString(color) {
		return fmt.Errorf("color must be a hex color like #ff8800")
	}
	return nil
}

// ValidateDateKey validates a YYYY-MM-DD date key.
func ValidateDateKey(key string) error {
	if !dateutil.ValidKey(key) {
		return fmt.Errorf("must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ValidateTime validates an HH:MM clock time. Empty is allowed.
func ValidateTime(s string) error {
	if s == "" {
		return nil
	}
	if !timePattern.MatchString(s) {
		return fmt.Errorf("must be a time in HH:MM format")
	}
	return nil
}

// ValidateSpan checks that a non-empty end date is not before the start date.
func ValidateSpan(date, endDate string) error {
	if endDate != "" && endDate < date {
		return fmt.Errorf("end date %s is before start date %s", endDate, date)
	}
	return nil
}

// ValidateClock checks that a same-day timed event does not end before it
// starts. Multi-day spans may end at an earlier clock time.
func ValidateClock(date, endDate, startTime, endTime string) error {
	if startTime == "" || endTime == "" {
		return nil
	}
	if endDate != "" && endDate != date {
		return nil
	}
	if endTime < startTime {
		return fmt.Errorf("end time %s is before start time %s", endTime, startTime)
	}
	return nil
}

// ValidateCreateMember validates a member registration request.
func ValidateCreateMember(req *domain.CreateMemberRequest) ValidationErrors {
	var errs ValidationErrors
	if err := ValidateMemberName(req.Name); err != nil {
		errs.Add("name", req.Name, err.Error())
	}
	if err := ValidateColor(req.Color); err != nil {
		errs.Add("color", req.Color, err.Error())
	}
	return errs
}

// ValidateCreateEvent validates an event creation request. It does not check
// that the member exists.
func ValidateCreateEvent(req *domain.CreateEventRequest) ValidationErrors {
	var errs ValidationErrors

	if req.MemberID == "" {
		errs.Add("memberId", "", "memberId is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		errs.Add("title", req.Title, "title is required")
	} else if utf8.RuneCountInString(req.Title) > MaxTitleLength {
		errs.Add("title", "", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(req.Memo) > MaxMemoLength {
		errs.Add("memo", "", fmt.Sprintf("memo must be at most %d characters", MaxMemoLength))
	}

	if req.Date == "" {
		errs.Add("date", "", "date is required")
	} else if err := ValidateDateKey(req.Date); err != nil {
		errs.Add("date", req.Date, err.Error())
	}
	if req.EndDate != "" {
		if err := ValidateDateKey(req.EndDate); err != nil {
			errs.Add("endDate", req.EndDate, err.Error())
		} else if err := ValidateSpan(req.Date, req.EndDate); err != nil {
			errs.Add("endDate", req.EndDate, err.Error())
		}
	}

	if !req.AllDay {
		if err := ValidateTime(req.StartTime); err != nil {
			errs.Add("startTime", req.StartTime, err.Error())
		}
		if err := ValidateTime(req.EndTime); err != nil {
			errs.Add("endTime", req.EndTime, err.Error())
		} else if err := ValidateClock(req.Date, req.EndDate, req.StartTime, req.EndTime); err != nil {
			errs.Add("endTime", req.EndTime, err.Error())
		}
	}

	rule, err := domain.ParseRepeat(req.Repeat)
	if err != nil {
		errs.Add("repeat", req.Repeat, "repeat must be one of none, daily, weekly, biweekly, monthly, yearly")
	} else if rule != domain.RepeatNone {
		if req.RepeatEnd == "" {
			errs.Add("repeatEnd", "", "repeatEnd is required when repeat is set")
		} else if err := ValidateDateKey(req.RepeatEnd); err != nil {
			errs.Add("repeatEnd", req.RepeatEnd, err.Error())
		}
	}

	return errs
}

// ValidateEventPatch validates the fields present in a scoped update.
func ValidateEventPatch(p *domain.EventPatch) ValidationErrors {
	var errs ValidationErrors

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			errs.Add("title", *p.Title, "title must not be empty")
		} else if utf8.RuneCountInString(*p.Title) > MaxTitleLength {
			errs.Add("title", "", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
		}
	}
	if p.Memo != nil && utf8.RuneCountInString(*p.Memo) > MaxMemoLength {
		errs.Add("memo", "", fmt.Sprintf("memo must be at most %d characters", MaxMemoLength))
	}
	if p.MemberID != nil && *p.MemberID == "" {
		errs.Add("memberId", "", "memberId must not be empty")
	}
	if p.Date != nil {
		if err := ValidateDateKey(*p.Date); err != nil {
			errs.Add("date", *p.Date, err.Error())
		}
	}
	if p.EndDate != nil && *p.EndDate != "" {
		if err := ValidateDateKey(*p.EndDate); err != nil {
			errs.Add("endDate", *p.EndDate, err.Error())
		}
	}
	if p.StartTime != nil {
		if err := ValidateTime(*p.StartTime); err != nil {
			errs.Add("startTime", *p.StartTime, err.Error())
		}
	}
	if p.EndTime != nil {
		if err := ValidateTime(*p.EndTime); err != nil {
			errs.Add("endTime", *p.EndTime, err.Error())
		}
	}

	return errs
}

// CleanTitle strips all markup from an event title and trims surrounding space.
// The result is plain text: entities escaped by the sanitizer are decoded.
func CleanTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(s)))
}

// CleanMemo sanitizes a memo, which clients render as HTML.
func CleanMemo(s string) string {
	return strings.TrimSpace(memoPolicy.Sanitize(s))
}
