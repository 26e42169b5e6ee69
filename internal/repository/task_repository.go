package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"habit-quest/internal/model"
)

// TaskRepository handles CRUD for tasks and their checklists.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns every task ordered by manual position first (unordered
// tasks go last), then newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("Checklist", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ?", userID).
		Order("position NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListIncomplete returns tasks whose completion flag is off. The rollover
// uses this set for its "due yesterday" check.
func (r *TaskRepository) ListIncomplete(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_completed = ?", userID, false).
		Order("position NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Preload("Checklist", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ? AND id = ?", userID, taskID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// SetCompleted flips the completion flag and stamps updated_at.
func (r *TaskRepository) SetCompleted(ctx context.Context, taskID uint, completed bool, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"is_completed": completed,
			"updated_at":   at,
		}).Error; err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	return nil
}

// ResetRecurring force-clears the completion flag of every recurring task.
// One-off tasks (repeat_period IS NULL) are untouched.
func (r *TaskRepository) ResetRecurring(ctx context.Context, userID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND repeat_period IS NOT NULL", userID).
		Updates(map[string]interface{}{
			"is_completed": false,
			"updated_at":   at,
		}).Error; err != nil {
		return fmt.Errorf("reset recurring: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit("Checklist").Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// UpdatePositions rewrites the manual order of the given tasks.
func (r *TaskRepository) UpdatePositions(ctx context.Context, userID uint, orderedIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&model.Task{}).
				Where("user_id = ? AND id = ?", userID, id).
				Update("position", i).Error; err != nil {
				return fmt.Errorf("update position: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a task with its checklist items.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("delete checklist: %w", err)
		}
		if err := tx.Where("user_id = ? AND id = ?", userID, taskID).
			Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}
