package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"habit-quest/internal/model"
	"habit-quest/internal/recurrence"
	"habit-quest/internal/repository"
)

// TaskInput represents data required to create or edit a task.
type TaskInput struct {
	Title           string
	Notes           string
	RepeatPeriod    *model.Period
	RepeatFrequency int
	RepeatWeekdays  recurrence.WeekdaySet
	Checklist       []string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks     *repository.TaskRepository
	checklist *repository.ChecklistRepository
	history   *repository.HistoryRepository
	stats     *StatsService
	eval      *recurrence.Evaluator
	log       *zap.Logger
}

func NewTaskService(tasks *repository.TaskRepository, checklist *repository.ChecklistRepository, history *repository.HistoryRepository, stats *StatsService, eval *recurrence.Evaluator, log *zap.Logger) *TaskService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskService{
		tasks:     tasks,
		checklist: checklist,
		history:   history,
		stats:     stats,
		eval:      eval,
		log:       log,
	}
}

func validate(input TaskInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrEmptyTitle
	}
	if input.RepeatPeriod != nil && *input.RepeatPeriod == model.PeriodWeekly && len(input.RepeatWeekdays) == 0 {
		return ErrWeekdaysRequired
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:          user.ID,
		Title:           strings.TrimSpace(input.Title),
		Notes:           input.Notes,
		RepeatPeriod:    input.RepeatPeriod,
		RepeatFrequency: input.RepeatFrequency,
		RepeatWeekdays:  recurrence.FormatWeekdaySet(input.RepeatWeekdays),
	}
	if task.RepeatFrequency < 1 {
		task.RepeatFrequency = 1
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	if err := s.replaceChecklist(ctx, task.ID, input.Checklist); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update rewrites the task fields and bulk-replaces its checklist.
func (s *TaskService) Update(ctx context.Context, user *model.User, taskID uint, input TaskInput) (*model.Task, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Notes = input.Notes
	task.RepeatPeriod = input.RepeatPeriod
	task.RepeatFrequency = input.RepeatFrequency
	if task.RepeatFrequency < 1 {
		task.RepeatFrequency = 1
	}
	task.RepeatWeekdays = recurrence.FormatWeekdaySet(input.RepeatWeekdays)
	task.Checklist = nil

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	if err := s.replaceChecklist(ctx, task.ID, input.Checklist); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) replaceChecklist(ctx context.Context, taskID uint, contents []string) error {
	items := make([]model.ChecklistItem, 0, len(contents))
	for _, content := range contents {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		items = append(items, model.ChecklistItem{Content: content})
	}
	return s.checklist.ReplaceForTask(ctx, taskID, items)
}

func (s *TaskService) Get(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.tasks.FindByID(ctx, user.ID, taskID)
}

func (s *TaskService) List(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.tasks.ListByUser(ctx, user.ID)
}

// ListDueOn returns the user's tasks that are due on the given day,
// completed ones included so the caller can render their state.
func (s *TaskService) ListDueOn(ctx context.Context, user *model.User, refDay time.Time) ([]model.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	due := tasks[:0]
	for _, task := range tasks {
		if s.eval.IsDue(task, refDay) {
			due = append(due, task)
		}
	}
	return due, nil
}

// ToggleComplete flips the completion flag. Toggling to complete appends a
// history entry and grants the stat reward; toggling back does neither — the
// log is append-only and rewards are not reversed.
func (s *TaskService) ToggleComplete(ctx context.Context, user *model.User, taskID uint, now time.Time) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	completed := !task.IsCompleted
	if err := s.tasks.SetCompleted(ctx, task.ID, completed, now); err != nil {
		return nil, err
	}
	task.IsCompleted = completed
	task.UpdatedAt = now

	if !completed {
		return task, nil
	}

	if err := s.history.Append(ctx, task.ID, now); err != nil {
		return nil, err
	}
	if err := s.stats.RewardCompletion(ctx, user.ID, now); err != nil {
		return nil, err
	}
	s.log.Info("task completed",
		zap.Uint("task_id", task.ID),
		zap.Uint("user_id", user.ID))
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, user *model.User, taskID uint) error {
	return s.tasks.Delete(ctx, user.ID, taskID)
}

// Reorder stores a new manual order for the given tasks.
func (s *TaskService) Reorder(ctx context.Context, user *model.User, orderedIDs []uint) error {
	return s.tasks.UpdatePositions(ctx, user.ID, orderedIDs)
}

// SuccessPercentage computes the expected-vs-actual completion ratio for a
// single task as of refDay.
func (s *TaskService) SuccessPercentage(ctx context.Context, task model.Task, refDay time.Time) (float64, error) {
	count, err := s.history.CountByTask(ctx, task.ID)
	if err != nil {
		return 0, err
	}
	return recurrence.SuccessPercentage(task, count, refDay), nil
}

// ResetHistory wipes the completion log for all tasks.
func (s *TaskService) ResetHistory(ctx context.Context) error {
	return s.history.DeleteAll(ctx)
}
