// internal/models/recurrence.go
package models

import "time"

// NextDueDate computes the next occurrence after the given due date using
// calendar-aware arithmetic. Month-based patterns clamp to the last day of
// the target month, so Jan 31 + MONTHLY = Feb 28 (29 in leap years). The
// second return is false for NONE or an unknown pattern.
func NextDueDate(from time.Time, r Recurrence) (time.Time, bool) {
	switch r {
	case RecurrenceDaily:
		return from.AddDate(0, 0, 1), true
	case RecurrenceWeekly:
		return from.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		return addMonthsClamped(from, 1), true
	case RecurrenceQuarterly:
		return addMonthsClamped(from, 3), true
	case RecurrenceYearly:
		return addMonthsClamped(from, 12), true
	case RecurrenceNone:
		return time.Time{}, false
	}
	return time.Time{}, false
}

// addMonthsClamped adds months without the normalization overflow of
// time.AddDate (Jan 31 + 1 month would otherwise land on Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	m := int(month) + months
	y := year + (m-1)/12
	m = (m-1)%12 + 1

	if last := daysInMonth(y, time.Month(m)); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(y, time.Month(m), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DayWindow returns the start-of-day and end-of-day bounds around t, used
// for same-day existence checks.
func DayWindow(t time.Time) (time.Time, time.Time) {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
