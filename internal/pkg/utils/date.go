package utils

import "time"

// DateLayout is the calendar date format used by the API and the database.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in t's own location. The result is
// expressed in UTC so dates from different zones compare by Y/M/D only.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateAfter reports whether a's calendar date is later than b's.
func DateAfter(a, b time.Time) bool {
	return DateOf(a).After(DateOf(b))
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
