package model

import "time"

// Period is the recurrence class of a task. A nil *Period on the task means
// the task never repeats and stays due until completed.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Task represents a single to-do or habit. CreatedAt doubles as the
// recurrence epoch: all "elapsed periods" math counts from it.
type Task struct {
	ID              uint `gorm:"primaryKey"`
	UserID          uint `gorm:"index"`
	Title           string
	Notes           string
	IsCompleted     bool    `gorm:"default:false"`
	Position        *int    `gorm:"index"`
	RepeatPeriod    *Period `gorm:"type:text;index"`
	RepeatFrequency int     `gorm:"default:1"`
	RepeatWeekdays  string  // comma-separated weekday tags, weekly tasks only
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Checklist       []ChecklistItem `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// Repeats reports whether the task has any recurrence policy at all.
func (t Task) Repeats() bool {
	return t.RepeatPeriod != nil
}

// PeriodOrNone returns the repeat period, or "" for one-off tasks.
func (t Task) PeriodOrNone() Period {
	if t.RepeatPeriod == nil {
		return ""
	}
	return *t.RepeatPeriod
}

// Frequency returns the repeat frequency normalized to at least 1, so that
// corrupt rows never divide or mod by zero.
func (t Task) Frequency() int {
	if t.RepeatFrequency < 1 {
		return 1
	}
	return t.RepeatFrequency
}
