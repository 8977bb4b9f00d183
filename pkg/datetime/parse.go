// Package datetime provides month-granular date utilities.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/project-finance/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout

	// DayLayout is accepted on input for dates carrying a day component.
	DayLayout = "2006-01-02"
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseMonth parses "2006-01" or "2006-01-02" and returns the first day of
// that month in UTC.
func ParseMonth(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("month value cannot be empty")
	}
	layout := DateTimeLayout
	if len(trimmed) > len(DateTimeLayout) {
		layout = DayLayout
	}
	t, err := time.Parse(layout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", value, err)
	}
	return MonthStart(t), nil
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths offsets a month start by n months.
func AddMonths(t time.Time, n int) time.Time {
	return MonthStart(t).AddDate(0, n, 0)
}

// MonthsBetween returns the number of whole months from a to b (negative when
// b is before a).
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*constants.MonthsPerYear + int(b.Month()) - int(a.Month())
}

// MonthRange returns every month start from start to end inclusive.
func MonthRange(start, end time.Time) []time.Time {
	start = MonthStart(start)
	end = MonthStart(end)
	if end.Before(start) {
		return nil
	}
	months := make([]time.Time, 0, MonthsBetween(start, end)+1)
	for current := start; !current.After(end); current = current.AddDate(0, 1, 0) {
		months = append(months, current)
	}
	return months
}

// NextCalendarBoundary returns the first month of the next absolute calendar
// period after t. Quarters begin in Jan/Apr/Jul/Oct and years in January; for
// monthly periods this is simply the following month.
func NextCalendarBoundary(t time.Time, monthsPerPeriod int) time.Time {
	if monthsPerPeriod <= 1 {
		return AddMonths(t, 1)
	}
	zeroBased := int(t.Month()) - 1
	next := (zeroBased/monthsPerPeriod + 1) * monthsPerPeriod
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, next, 0)
}

// IsPeriodEndMonth reports whether t is the last month of an absolute calendar
// period (Mar/Jun/Sep/Dec for quarters, Dec for years, always for months).
func IsPeriodEndMonth(t time.Time, monthsPerPeriod int) bool {
	if monthsPerPeriod <= 1 {
		return true
	}
	return int(t.Month())%monthsPerPeriod == 0
}

// Format renders a month in the output layout.
func Format(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}
