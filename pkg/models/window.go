package models

import "time"

// Window selects records by date, inclusive on both ends, optionally for one customer.
type Window struct {
	From       time.Time
	To         time.Time
	CustomerID string
}

// Contains reports whether the Zoho date string falls inside the window.
// Unparseable dates are outside.
func (w Window) Contains(date string) bool {
	d, ok := ParseDate(date)
	if !ok {
		return false
	}
	if !w.From.IsZero() && DaysBetween(w.From, d) < 0 {
		return false
	}
	if !w.To.IsZero() && DaysBetween(d, w.To) < 0 {
		return false
	}
	return true
}
