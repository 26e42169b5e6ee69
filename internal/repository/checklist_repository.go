package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habit-quest/internal/model"
)

// ChecklistRepository manages task checklist items.
type ChecklistRepository struct {
	db *gorm.DB
}

func NewChecklistRepository(db *gorm.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// ReplaceForTask drops the task's current items and inserts the new set in
// the given order. The edit flow always saves the whole checklist, so a
// delete-and-reinsert transaction is simpler than diffing.
func (r *ChecklistRepository) ReplaceForTask(ctx context.Context, taskID uint, items []model.ChecklistItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("clear checklist: %w", err)
		}
		for i := range items {
			items[i].ID = 0
			items[i].TaskID = taskID
			items[i].Position = i
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("insert checklist: %w", err)
		}
		return nil
	})
}

func (r *ChecklistRepository) ListByTask(ctx context.Context, taskID uint) ([]model.ChecklistItem, error) {
	var items []model.ChecklistItem
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ChecklistRepository) SetCompleted(ctx context.Context, itemID uint, completed bool) error {
	if err := r.db.WithContext(ctx).Model(&model.ChecklistItem{}).
		Where("id = ?", itemID).
		Update("is_completed", completed).Error; err != nil {
		return fmt.Errorf("set checklist item: %w", err)
	}
	return nil
}
