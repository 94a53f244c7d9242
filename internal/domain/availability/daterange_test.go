package availability

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func TestParseRangeWireFormatIgnoresTimezone(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-6", -6*3600),
		time.FixedZone("UTC+9", 9*3600),
		time.FixedZone("UTC-11", -11*3600),
		time.FixedZone("UTC+14", 14*3600),
	}

	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			r, err := ParseRange("2025-06-01", "2025-06-04", loc, fixedNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.WireStart() != "2025-06-01T00:00:00Z" || r.WireEnd() != "2025-06-04T00:00:00Z" {
				t.Fatalf("unexpected wire dates %s %s", r.WireStart(), r.WireEnd())
			}
			if r.Nights() != 3 {
				t.Fatalf("expected 3 nights, got %d", r.Nights())
			}
		})
	}
}

func TestParseRangeValidation(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		loc   *time.Location
		field string
	}{
		{name: "missing start", start: "", end: "2025-06-04", field: "start"},
		{name: "bad start", start: "2025/06/01", end: "2025-06-04", field: "start"},
		{name: "bad end", start: "2025-06-01", end: "2025-02-30", field: "end"},
		{name: "start in past", start: "2025-05-19", end: "2025-06-04", field: "start"},
		{name: "end equals start", start: "2025-06-01", end: "2025-06-01", field: "end"},
		{name: "end before start", start: "2025-06-04", end: "2025-06-01", field: "end"},
		// 2025-05-20 12:00Z is already 2025-05-21 in UTC+14
		{name: "today differs by zone", start: "2025-05-20", end: "2025-05-22", loc: time.FixedZone("UTC+14", 14*3600), field: "start"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRange(tc.start, tc.end, tc.loc, fixedNow)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%s)", tc.field, vErr.Field, vErr.Message)
			}
		})
	}
}

func TestParseRangeAllowsToday(t *testing.T) {
	behind := time.FixedZone("UTC-6", -6*3600)
	// still 2025-05-20 at UTC-6
	if _, err := ParseRange("2025-05-20", "2025-05-21", behind, fixedNow); err != nil {
		t.Fatalf("today must be accepted, got %v", err)
	}
}

func TestNightsNeverBelowOne(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		end  time.Time
		want int
	}{
		{end: base, want: 1},
		{end: base.Add(2 * time.Hour), want: 1},
		{end: base.Add(24 * time.Hour), want: 1},
		{end: base.Add(25 * time.Hour), want: 2},
		{end: base.AddDate(0, 0, 7), want: 7},
	}
	for _, tc := range cases {
		if got := Nights(base, tc.end); got != tc.want {
			t.Fatalf("Nights(%v) = %d, want %d", tc.end.Sub(base), got, tc.want)
		}
	}
}
