package recurrence

import (
	"strings"
	"time"
)

// Weekday is a closed Monday-first enumeration. Tasks store weekday tags as
// these fixed strings; nothing here depends on locale-formatted names.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayTags = [...]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Tag returns the stable storage tag for the weekday.
func (w Weekday) Tag() string {
	if w < Monday || w > Sunday {
		return ""
	}
	return weekdayTags[w]
}

// FromTime maps the standard library's Sunday-first weekday onto the enum.
func FromTime(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(int(d) - 1)
}

// ParseWeekday resolves a stored tag back into the enum.
func ParseWeekday(tag string) (Weekday, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for i, t := range weekdayTags {
		if t == tag {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdaySet is the weekday selection of a weekly task.
type WeekdaySet map[Weekday]struct{}

// ParseWeekdaySet reads a comma-separated tag list. Unknown tags are dropped
// rather than rejected; an empty or fully unknown list yields an empty set.
func ParseWeekdaySet(csv string) WeekdaySet {
	set := make(WeekdaySet)
	for _, part := range strings.Split(csv, ",") {
		if day, ok := ParseWeekday(part); ok {
			set[day] = struct{}{}
		}
	}
	return set
}

// FormatWeekdaySet renders the set back into storage form, Monday first.
func FormatWeekdaySet(set WeekdaySet) string {
	var tags []string
	for day := Monday; day <= Sunday; day++ {
		if _, ok := set[day]; ok {
			tags = append(tags, day.Tag())
		}
	}
	return strings.Join(tags, ",")
}

// Has reports membership.
func (s WeekdaySet) Has(day Weekday) bool {
	_, ok := s[day]
	return ok
}
