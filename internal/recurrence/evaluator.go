package recurrence

import (
	"time"

	"go.uber.org/zap"

	"habit-quest/internal/model"
)

// Evaluator answers "is this task due on that day". It is deterministic for a
// given reference day; callers pass time.Now() for the usual case and
// yesterday during the daily rollover.
type Evaluator struct {
	log *zap.Logger
}

func NewEvaluator(log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{log: log}
}

// IsDue evaluates the task's repeat policy against refDay.
//
// One-off tasks are always due: they stay on the list until completed.
// A malformed repeat period also yields true — hiding a task because of bad
// data is worse than over-showing it, so the evaluator fails open and logs.
func (e *Evaluator) IsDue(task model.Task, refDay time.Time) bool {
	if !task.Repeats() {
		return true
	}

	freq := task.Frequency()
	switch *task.RepeatPeriod {
	case model.PeriodDaily:
		d := DaysBetween(refDay, task.CreatedAt)
		return d >= 0 && d%freq == 0

	case model.PeriodWeekly:
		set := ParseWeekdaySet(task.RepeatWeekdays)
		if len(set) == 0 {
			return false
		}
		if !set.Has(FromTime(refDay.Weekday())) {
			return false
		}
		return WeeksBetween(refDay, task.CreatedAt)%freq == 0

	case model.PeriodMonthly:
		// Strictly m > 0: a monthly task is never due on its creation day
		// or before one full month has elapsed.
		m := MonthsBetween(refDay, task.CreatedAt)
		if m <= 0 || m%freq != 0 {
			return false
		}
		return SameDay(AddMonths(task.CreatedAt, m), refDay)

	case model.PeriodYearly:
		y := YearsBetween(refDay, task.CreatedAt)
		if y < 0 || y%freq != 0 {
			return false
		}
		return SameDay(AddYears(task.CreatedAt, y), refDay)

	default:
		e.log.Warn("unknown repeat period, treating task as due",
			zap.Uint("task_id", task.ID),
			zap.String("period", string(*task.RepeatPeriod)))
		return true
	}
}
