package dateutil_test

import (
	"testing"
	"time"

	"github.com/bcnelson/household-calendar/internal/dateutil"
)

func TestKeyRoundTrip(t *testing.T) {
	keys := []string{
		"2024-01-01",
		"2024-02-29",
		"2023-12-31",
		"1999-07-04",
		"0001-01-01",
		"9999-12-31",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			d, err := dateutil.FromKey(key)
			if err != nil {
				t.Fatalf("FromKey(%q) error = %v", key, err)
			}
			if got := dateutil.ToKey(d); got != key {
				t.Errorf("ToKey(FromKey(%q)) = %q", key, got)
			}
		})
	}
}

func TestFromKeyRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"single digit month", "2024-1-05"},
		{"single digit day", "2024-01-5"},
		{"nonexistent day", "2023-02-29"},
		{"month 13", "2024-13-01"},
		{"slashes", "2024/01/01"},
		{"trailing time", "2024-01-01T00:00:00"},
		{"short year", "24-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dateutil.FromKey(tt.key); err == nil {
				t.Errorf("FromKey(%q) expected error", tt.key)
			}
			if dateutil.ValidKey(tt.key) {
				t.Errorf("ValidKey(%q) = true", tt.key)
			}
		})
	}
}

func TestToKeyUsesOwnLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	// 2024-03-01 00:30 in Seoul is still February 29 in UTC.
	d := time.Date(2024, time.March, 1, 0, 30, 0, 0, seoul)
	if got := dateutil.ToKey(d); got != "2024-03-01" {
		t.Errorf("ToKey = %q, want 2024-03-01", got)
	}
	if got := dateutil.ToKey(dateutil.Truncate(d)); got != "2024-03-01" {
		t.Errorf("ToKey(Truncate) = %q, want 2024-03-01", got)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		start string
		unit  dateutil.Unit
		n     int
		want  string
	}{
		{"one day", "2024-01-31", dateutil.Day, 1, "2024-02-01"},
		{"leap day", "2024-02-28", dateutil.Day, 1, "2024-02-29"},
		{"week", "2024-01-01", dateutil.Week, 3, "2024-01-22"},
		{"fortnight", "2024-12-25", dateutil.Fortnight, 1, "2025-01-08"},
		{"month plain", "2024-01-15", dateutil.Month, 1, "2024-02-15"},
		{"month clamp leap", "2024-01-31", dateutil.Month, 1, "2024-02-29"},
		{"month clamp non-leap", "2023-01-31", dateutil.Month, 1, "2023-02-28"},
		{"month clamp 30 day", "2024-01-31", dateutil.Month, 3, "2024-04-30"},
		{"month keeps day", "2024-01-31", dateutil.Month, 2, "2024-03-31"},
		{"month across year", "2024-11-30", dateutil.Month, 3, "2025-02-28"},
		{"negative month", "2024-03-31", dateutil.Month, -1, "2024-02-29"},
		{"year", "2023-06-10", dateutil.Year, 2, "2025-06-10"},
		{"year from leap day", "2024-02-29", dateutil.Year, 1, "2025-02-28"},
		{"four years from leap day", "2024-02-29", dateutil.Year, 4, "2028-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := dateutil.FromKey(tt.start)
			if err != nil {
				t.Fatal(err)
			}
			got := dateutil.ToKey(dateutil.Advance(start, tt.unit, tt.n))
			if got != tt.want {
				t.Errorf("Advance(%s, %v, %d) = %s, want %s", tt.start, tt.unit, tt.n, got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := dateutil.Date(2024, time.February, 27)
	b := dateutil.Date(2024, time.March, 2)
	if got := dateutil.DaysBetween(a, b); got != 4 {
		t.Errorf("DaysBetween = %d, want 4", got)
	}
	if got := dateutil.DaysBetween(b, a); got != -4 {
		t.Errorf("DaysBetween reversed = %d, want -4", got)
	}
}

func TestDaysIn(t *testing.T) {
	if got := dateutil.DaysIn(2024, time.February); got != 29 {
		t.Errorf("DaysIn(2024, Feb) = %d", got)
	}
	if got := dateutil.DaysIn(2100, time.February); got != 28 {
		t.Errorf("DaysIn(2100, Feb) = %d", got)
	}
}
