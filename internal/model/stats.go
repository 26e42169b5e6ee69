package model

import "time"

// Stats holds the per-user gamification counters. Exactly one row per user.
// Both counters are floored at zero and unbounded above; all mutations go
// through atomic SQL increments, never read-modify-write.
type Stats struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex"`
	Health    int  `gorm:"default:0"`
	Happiness int  `gorm:"default:0"`
	UpdatedAt time.Time
}
