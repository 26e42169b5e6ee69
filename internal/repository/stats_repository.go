package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-quest/internal/model"
)

// StatsRepository manages the single health/happiness row per user.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetOrCreate returns the user's stats row, inserting a zeroed one on first
// touch.
func (r *StatsRepository) GetOrCreate(ctx context.Context, userID uint) (*model.Stats, error) {
	var stats model.Stats
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ?", userID).First(&stats).Error
	switch {
	case err == nil:
		return &stats, nil
	case err == gorm.ErrRecordNotFound:
		stats = model.Stats{UserID: userID}
		if err := db.Create(&stats).Error; err != nil {
			return nil, fmt.Errorf("create stats: %w", err)
		}
		return &stats, nil
	default:
		return nil, fmt.Errorf("find stats: %w", err)
	}
}

// Adjust applies deltas to both counters in one atomic UPDATE. The MAX floor
// keeps counters at zero or above; there is no upper bound. Doing the math in
// SQL avoids the lost-update race of read-then-write under concurrent
// completions.
func (r *StatsRepository) Adjust(ctx context.Context, userID uint, healthDelta, happinessDelta int, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Stats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"health":     gorm.Expr("MAX(health + ?, 0)", healthDelta),
			"happiness":  gorm.Expr("MAX(happiness + ?, 0)", happinessDelta),
			"updated_at": at,
		}).Error; err != nil {
		return fmt.Errorf("adjust stats: %w", err)
	}
	return nil
}
