package model

import "time"

// CompletionEntry is an append-only log record: one row per toggle-to-complete
// event. Untoggling a task never removes its entries; only a full history
// reset does.
type CompletionEntry struct {
	ID          uint `gorm:"primaryKey"`
	TaskID      uint `gorm:"index"`
	CompletedAt time.Time
}
