package model

import "time"

// ChecklistItem is a sub-step of a task. Items are bulk-replaced on every
// task save: the edit flow deletes the old set and reinserts the new one in
// order, there is no incremental diffing.
type ChecklistItem struct {
	ID          uint `gorm:"primaryKey"`
	TaskID      uint `gorm:"index"`
	Content     string
	IsCompleted bool `gorm:"default:false"`
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
