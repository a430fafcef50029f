package models

import "time"

// DateLayout is the storage format for calendar dates
const DateLayout = "2006-01-02"

// CalendarDay truncates t to midnight in t's own location
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CompareDays compares the calendar dates of a and b, each read in its own location.
// It returns -1, 0 or +1.
func CompareDays(a, b time.Time) int {
	ka, kb := a.Format(DateLayout), b.Format(DateLayout)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return 0
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	return CompareDays(a, b) == 0
}

// IsDayBefore reports whether a is exactly the calendar day before b
func IsDayBefore(a, b time.Time) bool {
	return SameDay(CalendarDay(a).AddDate(0, 0, 1), b)
}
