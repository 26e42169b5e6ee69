package recurrence

import (
	"time"

	"habit-quest/internal/model"
)

// SuccessPercentage compares how often a task was actually completed against
// how often its cadence implied it should have been, as of refDay.
//
// expected = elapsed whole periods / frequency; the result is
// completions/expected*100. A user who over-completed can score above 100 —
// the value is floored at zero via the guards below but never clamped on top.
// Unlike IsDue, the monthly and yearly branches count elapsed periods without
// requiring exact calendar-day alignment.
func SuccessPercentage(task model.Task, completions int, refDay time.Time) float64 {
	if !task.Repeats() {
		return 0
	}

	var elapsed int
	switch *task.RepeatPeriod {
	case model.PeriodDaily:
		elapsed = DaysBetween(refDay, task.CreatedAt)
	case model.PeriodWeekly:
		elapsed = WeeksBetween(refDay, task.CreatedAt)
	case model.PeriodMonthly:
		elapsed = MonthsBetween(refDay, task.CreatedAt)
	case model.PeriodYearly:
		elapsed = YearsBetween(refDay, task.CreatedAt)
	default:
		return 0
	}

	expected := float64(elapsed) / float64(task.Frequency())
	if expected <= 0 {
		return 0
	}
	return float64(completions) / expected * 100
}
