package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-quest/internal/model"
)

// HistoryRepository stores the append-only completion log.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append records one completion event. Entries are never updated; untoggling
// a task leaves the log untouched.
func (r *HistoryRepository) Append(ctx context.Context, taskID uint, completedAt time.Time) error {
	entry := model.CompletionEntry{TaskID: taskID, CompletedAt: completedAt}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("append completion: %w", err)
	}
	return nil
}

func (r *HistoryRepository) CountByTask(ctx context.Context, taskID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.CompletionEntry{}).
		Where("task_id = ?", taskID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return int(count), nil
}

// DeleteAll wipes the whole log for every task. Only the explicit
// reset-history action calls this.
func (r *HistoryRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.CompletionEntry{}).Error; err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}
