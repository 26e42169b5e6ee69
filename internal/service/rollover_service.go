package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"habit-quest/internal/model"
	"habit-quest/internal/recurrence"
	"habit-quest/internal/repository"
)

// RolloverState tracks the once-per-day reset through its lifecycle.
type RolloverState int

const (
	RolloverNotChecked RolloverState = iota
	RolloverChecking
	RolloverSettled
	RolloverFailed
)

// RolloverResult is what a rollover run reports back to the caller.
type RolloverResult struct {
	State RolloverState
	// FirstOfDay is false when the marker already matched today and nothing
	// was touched.
	FirstOfDay bool
	// Missed holds the not-completed tasks that were due yesterday. The bot
	// uses it to push the "yesterday review" message.
	Missed []model.Task
}

const markerDateLayout = "2006-01-02"

func rolloverMarkerKey(userID uint) string {
	return fmt.Sprintf("last_rollover_date:%d", userID)
}

// RolloverService runs the daily reset: on the first run of a local calendar
// day it penalizes yesterday's missed tasks and clears the completion flag of
// every recurring task.
type RolloverService struct {
	tasks    *repository.TaskRepository
	settings *repository.SettingsRepository
	stats    *StatsService
	eval     *recurrence.Evaluator
	log      *zap.Logger
}

func NewRolloverService(tasks *repository.TaskRepository, settings *repository.SettingsRepository, stats *StatsService, eval *recurrence.Evaluator, log *zap.Logger) *RolloverService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RolloverService{
		tasks:    tasks,
		settings: settings,
		stats:    stats,
		eval:     eval,
		log:      log,
	}
}

// Run executes the state machine for one user. Safe to call on every
// interaction: when the marker already holds today's date it settles without
// side effects.
//
// The marker is written before penalties and resets are applied. A failure
// after that write stays failed until the next calendar day — at-most-once by
// design, so a retry storm can never drain the counters twice.
func (s *RolloverService) Run(ctx context.Context, userID uint, now time.Time) (RolloverResult, error) {
	res := RolloverResult{State: RolloverChecking}
	key := rolloverMarkerKey(userID)
	today := now.Format(markerDateLayout)

	stored, err := s.settings.Get(ctx, key)
	if err != nil {
		res.State = RolloverFailed
		return res, fmt.Errorf("read rollover marker: %w", err)
	}
	if stored == today {
		res.State = RolloverSettled
		return res, nil
	}

	if err := s.settings.Set(ctx, key, today); err != nil {
		res.State = RolloverFailed
		return res, fmt.Errorf("write rollover marker: %w", err)
	}
	res.FirstOfDay = true

	yesterday := now.AddDate(0, 0, -1)
	incomplete, err := s.tasks.ListIncomplete(ctx, userID)
	if err != nil {
		res.State = RolloverFailed
		return res, fmt.Errorf("list incomplete tasks: %w", err)
	}
	for _, task := range incomplete {
		if s.eval.IsDue(task, yesterday) {
			res.Missed = append(res.Missed, task)
		}
	}

	if err := s.stats.PenalizeMissed(ctx, userID, len(res.Missed), now); err != nil {
		res.State = RolloverFailed
		return res, fmt.Errorf("apply miss penalty: %w", err)
	}

	if err := s.tasks.ResetRecurring(ctx, userID, now); err != nil {
		res.State = RolloverFailed
		return res, fmt.Errorf("reset recurring tasks: %w", err)
	}

	res.State = RolloverSettled
	s.log.Info("daily rollover settled",
		zap.Uint("user_id", userID),
		zap.String("date", today),
		zap.Int("missed", len(res.Missed)))
	return res, nil
}
