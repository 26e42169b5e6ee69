package recurrence

import "time"

// dateOf strips a timestamp down to its calendar date, anchored at UTC
// midnight so that whole-day subtraction is exact across DST changes.
func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two instants fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of whole calendar days from `from` to `ref`.
// Negative when ref is earlier.
func DaysBetween(ref, from time.Time) int {
	return int(dateOf(ref).Sub(dateOf(from)).Hours() / 24)
}

// WeeksBetween returns whole elapsed weeks, truncated toward zero.
func WeeksBetween(ref, from time.Time) int {
	return DaysBetween(ref, from) / 7
}

// AddMonths adds m calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month = Feb 28), instead of the standard library's
// normalizing overflow into March.
func AddMonths(t time.Time, m int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, m, 0)
	if last := daysInMonth(first.Month(), first.Year()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// AddYears adds y calendar years with the same day clamp (Feb 29 -> Feb 28).
func AddYears(t time.Time, y int) time.Time {
	return AddMonths(t, y*12)
}

// MonthsBetween returns whole elapsed calendar months from `from` to `ref`,
// truncated: month k has elapsed once the (clamped) k-month anniversary of
// `from` has been reached.
func MonthsBetween(ref, from time.Time) int {
	refDay := dateOf(ref)
	m := (ref.Year()-from.Year())*12 + int(ref.Month()) - int(from.Month())
	if AddMonths(from, m).After(refDay) {
		m--
	}
	return m
}

// YearsBetween returns whole elapsed calendar years, truncated the same way.
func YearsBetween(ref, from time.Time) int {
	refDay := dateOf(ref)
	y := ref.Year() - from.Year()
	if AddYears(from, y).After(refDay) {
		y--
	}
	return y
}

// daysInMonth moves to the next month and rolls back a day.
func daysInMonth(month time.Month, year int) int {
	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
