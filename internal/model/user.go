package model

import "time"

// User stores Telegram user metadata. Tasks, stats and settings hang off the
// internal ID, not the Telegram one.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
