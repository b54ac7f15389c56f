package validation

import (
	"errors"
	"testing"

	"github.com/bcnelson/household-calendar/internal/domain"
)

func TestValidateMemberName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "엄마", false},
		{"ascii", "Dad", false},
		{"max length", "abcdefghijklmnopqrst", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"too long", "abcdefghijklmnopqrstu", true},
		{"reserved display name", domain.SharedMemberName, true},
		{"reserved id", domain.SharedMemberID, true},
		{"padded reserved display name", " " + domain.SharedMemberName + " ", true},
		{"padded reserved id", "\t" + domain.SharedMemberID, true},
		{"padded max length", "  abcdefghijklmnopqrst  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMemberName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMemberName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		color   string
		wantErr bool
	}{
		{"six digit", "#ff8800", false},
		{"upper case", "#FF8800", false},
		{"three digit", "#f80", false},
		{"empty", "", true},
		{"missing hash", "ff8800", true},
		{"named color", "red", true},
		{"bad digit", "#ff88zz", true},
		{"four digit", "#ff88", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColor(tt.color)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.color, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTime(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"00:00", false},
		{"09:30", false},
		{"23:59", false},
		{"24:00", true},
		{"9:30", true},
		{"12:60", true},
		{"noon", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreateEvent(t *testing.T) {
	valid := func() domain.CreateEventRequest {
		return domain.CreateEventRequest{
			MemberID: "m1",
			Title:    "Dentist",
			Date:     "2024-05-01",
		}
	}

	tests := []struct {
		name      string
		mutate    func(r *domain.CreateEventRequest)
		wantField string
	}{
		{"valid", func(r *domain.CreateEventRequest) {}, ""},
		{"missing member", func(r *domain.CreateEventRequest) { r.MemberID = "" }, "memberId"},
		{"missing title", func(r *domain.CreateEventRequest) { r.Title = "" }, "title"},
		{"missing date", func(r *domain.CreateEventRequest) { r.Date = "" }, "date"},
		{"bad date", func(r *domain.CreateEventRequest) { r.Date = "2024-02-30" }, "date"},
		{"end before start", func(r *domain.CreateEventRequest) { r.EndDate = "2024-04-30" }, "endDate"},
		{"span", func(r *domain.CreateEventRequest) { r.EndDate = "2024-05-03" }, ""},
		{"bad start time", func(r *domain.CreateEventRequest) { r.StartTime = "25:00" }, "startTime"},
		{"bad time ignored when all day", func(r *domain.CreateEventRequest) {
			r.AllDay = true
			r.StartTime = "25:00"
		}, ""},
		{"unknown rule", func(r *domain.CreateEventRequest) { r.Repeat = "hourly" }, "repeat"},
		{"rule without end", func(r *domain.CreateEventRequest) { r.Repeat = "weekly" }, "repeatEnd"},
		{"rule with end", func(r *domain.CreateEventRequest) {
			r.Repeat = "weekly"
			r.RepeatEnd = "2024-06-01"
		}, ""},
		{"none rule without end", func(r *domain.CreateEventRequest) { r.Repeat = "none" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			errs := ValidateCreateEvent(&req)

			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateEventPatch(t *testing.T) {
	empty := ""
	badDate := "2024-13-01"
	goodDate := "2024-05-02"
	badTime := "7pm"

	if errs := ValidateEventPatch(&domain.EventPatch{Date: &goodDate, EndDate: &empty}); errs.HasErrors() {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := ValidateEventPatch(&domain.EventPatch{Title: &empty}); !errs.HasErrors() {
		t.Error("expected error for empty title")
	}
	if errs := ValidateEventPatch(&domain.EventPatch{Date: &badDate}); !errs.HasErrors() {
		t.Error("expected error for bad date")
	}
	if errs := ValidateEventPatch(&domain.EventPatch{StartTime: &badTime}); !errs.HasErrors() {
		t.Error("expected error for bad time")
	}
}

func TestValidationErrorsMatchInvalidInput(t *testing.T) {
	var errs ValidationErrors
	if errs.Err() != nil {
		t.Error("empty collection should be a nil error")
	}
	errs.Add("title", "", "title is required")
	if !errors.Is(errs.Err(), domain.ErrInvalidInput) {
		t.Error("expected ValidationErrors to match domain.ErrInvalidInput")
	}
	if !errors.Is(NewValidationError("name", "x", "taken"), domain.ErrInvalidInput) {
		t.Error("expected ValidationError to match domain.ErrInvalidInput")
	}
}

func TestValidateClock(t *testing.T) {
	tests := []struct {
		name                      string
		date, endDate, start, end string
		wantErr                   bool
	}{
		{"ordered", "2024-05-01", "", "09:00", "10:00", false},
		{"equal", "2024-05-01", "", "09:00", "09:00", false},
		{"inverted", "2024-05-01", "", "10:00", "09:00", true},
		{"inverted same end date", "2024-05-01", "2024-05-01", "10:00", "09:00", true},
		{"overnight span", "2024-05-01", "2024-05-02", "22:00", "06:00", false},
		{"no end time", "2024-05-01", "", "10:00", "", false},
		{"no start time", "2024-05-01", "", "", "09:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClock(tt.date, tt.endDate, tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClock error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"  <b>Dentist</b> ":             "Dentist",
		"Tom & Jerry's party":           "Tom & Jerry's party",
		`<i>5 < 6</i> "quoted"`:         `5 < 6 "quoted"`,
		"<script>alert(1)</script>Swim": "Swim",
	}
	for in, want := range tests {
		if got := CleanTitle(in); got != want {
			t.Errorf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
	if got := CleanMemo("<p>bring card</p><script>alert('x')</script>"); got != "<p>bring card</p>" {
		t.Errorf("CleanMemo = %q", got)
	}
}
