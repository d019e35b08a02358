// Package dates holds the calendar arithmetic and the two date formats used on
// batch labels. All values are date-only: a time.Time at midnight UTC carrying
// the calendar fields, so no timezone shift can move a label to the next day.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ISOLayout is the canonical machine form, used for form input and storage.
	ISOLayout = "2006-01-02"
	// DisplayLayout is the printed form, e.g. "05 Mar 2025". Go month
	// abbreviations are fixed English regardless of the process locale.
	DisplayLayout = "02 Jan 2006"
)

// Date truncates t to its calendar date in t's own location and returns it as
// midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar date n days after date. n may be negative.
func AddDays(date time.Time, n int) time.Time {
	d := Date(date)
	return d.AddDate(0, 0, n)
}

// FormatISO renders YYYY-MM-DD from the date's calendar fields.
func FormatISO(date time.Time) string {
	return Date(date).Format(ISOLayout)
}

// FormatDisplay renders DD Mon YYYY.
func FormatDisplay(date time.Time) string {
	return Date(date).Format(DisplayLayout)
}

// ParseISO parses a YYYY-MM-DD string into a date.
func ParseISO(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("dates: empty date")
	}
	t, err := time.Parse(ISOLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates: parse %q: %w", value, err)
	}
	return t, nil
}

// Today returns FormatISO of the current local date.
func Today() string {
	return TodayAt(time.Now())
}

// TodayAt is Today against an explicit clock reading.
func TodayAt(now time.Time) string {
	return FormatISO(now)
}
