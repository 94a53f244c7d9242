package availability

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted from the browser.
const DateLayout = "2006-01-02"

const wireSuffix = "T00:00:00Z"

// ValidationError is a field-level rejection of a date range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Details returns the error in the response envelope's field map shape.
func (e *ValidationError) Details() map[string]string {
	return map[string]string{e.Field: e.Message}
}

// DateRange is a validated half-open [Start, End) interval of calendar dates. Start and End are
// midnight UTC of the chosen dates; the caller's timezone only matters for "today".
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate reads a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// ParseRange validates start and end as calendar dates in loc. start may not be before today
// (in loc) and end must be strictly after start.
func ParseRange(start, end string, loc *time.Location, now time.Time) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}

	if strings.TrimSpace(start) == "" {
		return DateRange{}, &ValidationError{Field: "start", Message: "start date is required"}
	}
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, &ValidationError{Field: "start", Message: "invalid date, expected YYYY-MM-DD"}
	}

	if strings.TrimSpace(end) == "" {
		return DateRange{}, &ValidationError{Field: "end", Message: "end date is required"}
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, &ValidationError{Field: "end", Message: "invalid date, expected YYYY-MM-DD"}
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if s.Before(today) {
		return DateRange{}, &ValidationError{Field: "start", Message: "start date cannot be in the past"}
	}
	if !e.After(s) {
		return DateRange{}, &ValidationError{Field: "end", Message: "end date must be after start date"}
	}

	return DateRange{Start: s, End: e}, nil
}

// StartDate returns the start as YYYY-MM-DD.
func (r DateRange) StartDate() string { return r.Start.Format(DateLayout) }

// EndDate returns the end as YYYY-MM-DD.
func (r DateRange) EndDate() string { return r.End.Format(DateLayout) }

// WireStart is the start serialized for the backend: "<date>T00:00:00Z".
func (r DateRange) WireStart() string { return r.StartDate() + wireSuffix }

// WireEnd is the end serialized for the backend: "<date>T00:00:00Z".
func (r DateRange) WireEnd() string { return r.EndDate() + wireSuffix }

// Nights is the number of billable nights, never less than 1.
func (r DateRange) Nights() int {
	return Nights(r.Start, r.End)
}

// Nights returns max(1, ceil(days between start and end)).
func Nights(start, end time.Time) int {
	days := end.Sub(start).Hours() / 24
	n := int(math.Ceil(days))
	if n < 1 {
		return 1
	}
	return n
}
