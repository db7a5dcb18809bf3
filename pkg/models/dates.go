package models

import (
	"strings"
	"time"
)

// DateLayout is the date format used by the Zoho Books API.
const DateLayout = "2006-01-02"

// ParseDate parses a Zoho date ("2006-01-02", optionally followed by a time part).
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if len(value) < len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysBetween returns the whole days from 'from' to 'to', comparing calendar dates only.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
