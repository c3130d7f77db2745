package timeutil

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the canonical calendar date format.
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical time-of-day format.
	ClockLayout = "15:04"
)

// ParseClock parses an "HH:MM" value into minutes since midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidClock reports whether value is a parseable "HH:MM" time of day.
func ValidClock(value string) bool {
	_, err := ParseClock(value)
	return err == nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date in UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Adjacent intervals do not overlap, so a booking
// may begin exactly when the previous one ends.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Contains reports whether [innerStart, innerEnd) lies entirely inside
// [outerStart, outerEnd).
func Contains(outerStart, outerEnd, innerStart, innerEnd int) bool {
	return innerStart >= outerStart && innerEnd <= outerEnd
}
