package domain

import (
	"fmt"
	"time"

	"github.com/vilaca/sprint-api/internal/apperr"
)

// Date is a calendar date with no time-of-day or zone attached.
// Day bounds are materialized in a concrete location only when a Window
// compares against it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// After reports whether d is a later calendar date than other.
func (d Date) After(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

// startOfDay is the earliest instant of d in loc.
func (d Date) startOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// endOfDay is the latest instant of d in loc.
func (d Date) endOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

// ParseDDMMYYYY parses the caller-facing DDMMYYYY date format.
// field names the query parameter being parsed so validation errors can
// point at it.
func ParseDDMMYYYY(value, field string) (Date, error) {
	if value == "" {
		return Date{}, apperr.Validation(fmt.Sprintf("%s is required", field), nil)
	}
	if len(value) != 8 || !allDigits(value) {
		return Date{}, apperr.Validation(
			fmt.Sprintf("%s must be in DDMMYYYY format", field),
			map[string]any{"field": field, "value": value},
		)
	}
	day := int(value[0]-'0')*10 + int(value[1]-'0')
	month := int(value[2]-'0')*10 + int(value[3]-'0')
	year := 0
	for i := 4; i < 8; i++ {
		year = year*10 + int(value[i]-'0')
	}

	// time.Date normalizes overflow (e.g. 32 Jan -> 1 Feb), so round-trip
	// the components to reject impossible dates.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return Date{}, apperr.Validation(
			fmt.Sprintf("%s is not a valid date", field),
			map[string]any{"field": field, "value": value},
		)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// ParseJiraTime parses a Jira timestamp such as
// "2026-01-07T10:00:00.000+05:30". Absent or malformed values yield nil;
// the backend supplies these, so they are never a caller error.
func ParseJiraTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
