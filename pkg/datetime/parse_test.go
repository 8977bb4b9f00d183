package datetime

import (
	"testing"
	"time"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		dateStr  string
		expected string
	}{
		{
			name:     "Valid date",
			layout:   DateTimeLayout,
			dateStr:  "2025-01",
			expected: "2025-01",
		},
		{
			name:     "Another valid date",
			layout:   DateTimeLayout,
			dateStr:  "2030-12",
			expected: "2030-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(tt.layout, tt.dateStr)
			if result.Format(tt.layout) != tt.expected {
				t.Errorf("MustParseTime() = %s, expected %s", result.Format(tt.layout), tt.expected)
			}
		})
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateTimeLayout, "invalid-date")
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Month layout", "2026-07", "2026-07", false},
		{"Day layout truncates to month", "2026-07-15", "2026-07", false},
		{"Whitespace", "  2026-01 ", "2026-01", false},
		{"Empty", "", "", true},
		{"Garbage", "July 2026", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Day() != 1 || Format(got) != tt.expected {
				t.Errorf("ParseMonth(%q) = %v, expected %s-01", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMonthsBetweenAndRange(t *testing.T) {
	a := MustParseTime(DateTimeLayout, "2025-11")
	b := MustParseTime(DateTimeLayout, "2027-02")
	if got := MonthsBetween(a, b); got != 15 {
		t.Errorf("MonthsBetween() = %d, expected 15", got)
	}
	if got := MonthsBetween(b, a); got != -15 {
		t.Errorf("MonthsBetween() reversed = %d, expected -15", got)
	}

	months := MonthRange(a, b)
	if len(months) != 16 {
		t.Fatalf("MonthRange() len = %d, expected 16", len(months))
	}
	if Format(months[0]) != "2025-11" || Format(months[15]) != "2027-02" {
		t.Errorf("MonthRange() bounds = %s..%s", Format(months[0]), Format(months[15]))
	}
	if MonthRange(b, a) != nil {
		t.Errorf("expected nil range when end precedes start")
	}
}

func TestNextCalendarBoundary(t *testing.T) {
	tests := []struct {
		name            string
		date            string
		monthsPerPeriod int
		expected        string
	}{
		{"Q1 month rolls to April", "2026-02", 3, "2026-04"},
		{"Quarter start still rolls forward", "2026-04", 3, "2026-07"},
		{"Q3 end rolls to October", "2026-09", 3, "2026-10"},
		{"Q4 rolls to next January", "2026-11", 3, "2027-01"},
		{"Monthly is next month", "2026-12", 1, "2027-01"},
		{"Annual is next January", "2026-05", 12, "2027-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextCalendarBoundary(MustParseTime(DateTimeLayout, tt.date), tt.monthsPerPeriod)
			if Format(got) != tt.expected {
				t.Errorf("NextCalendarBoundary(%s, %d) = %s, expected %s", tt.date, tt.monthsPerPeriod, Format(got), tt.expected)
			}
		})
	}
}

func TestIsPeriodEndMonth(t *testing.T) {
	tests := []struct {
		month           time.Month
		monthsPerPeriod int
		expected        bool
	}{
		{time.March, 3, true},
		{time.April, 3, false},
		{time.December, 12, true},
		{time.June, 12, false},
		{time.February, 1, true},
	}

	for _, tt := range tests {
		date := time.Date(2026, tt.month, 1, 0, 0, 0, 0, time.UTC)
		if got := IsPeriodEndMonth(date, tt.monthsPerPeriod); got != tt.expected {
			t.Errorf("IsPeriodEndMonth(%s, %d) = %v, expected %v", tt.month, tt.monthsPerPeriod, got, tt.expected)
		}
	}
}

func TestOffsetDate(t *testing.T) {
	got, err := OffsetDate("2025-11", DateTimeLayout, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2026-02" {
		t.Errorf("OffsetDate() = %s, expected 2026-02", got)
	}
	if _, err := OffsetDate("bad", DateTimeLayout, 1); err == nil {
		t.Errorf("expected error for invalid date")
	}
}
