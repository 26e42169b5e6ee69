package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habit-quest/internal/model"
	"habit-quest/internal/recurrence"
	"habit-quest/internal/repository"
	"habit-quest/internal/service"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

// minRoll always draws the bottom of the band, making rewards and penalties
// deterministic.
func minRoll(min, _ int) int {
	return min
}

type fixture struct {
	db       *gorm.DB
	tasks    *repository.TaskRepository
	settings *repository.SettingsRepository
	statsSvc *service.StatsService
	rollover *service.RolloverService
	taskSvc  *service.TaskService
	user     *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	tasks := repository.NewTaskRepository(db)
	checklist := repository.NewChecklistRepository(db)
	history := repository.NewHistoryRepository(db)
	stats := repository.NewStatsRepository(db)
	settings := repository.NewSettingsRepository(db)
	eval := recurrence.NewEvaluator(nil)

	statsSvc := service.NewStatsService(stats, service.DefaultRewardBands(), minRoll, nil)
	user, err := repository.NewUserRepository(db).
		UpsertFromTelegram(context.Background(), 42, "Test", "User", "test")
	require.NoError(t, err)

	return &fixture{
		db:       db,
		tasks:    tasks,
		settings: settings,
		statsSvc: statsSvc,
		rollover: service.NewRolloverService(tasks, settings, statsSvc, eval, nil),
		taskSvc:  service.NewTaskService(tasks, checklist, history, statsSvc, eval, nil),
		user:     user,
	}
}

func (f *fixture) seedTask(t *testing.T, title string, period *model.Period, freq int, weekdays string, createdAt time.Time, completed bool) model.Task {
	t.Helper()
	task := model.Task{
		UserID:          f.user.ID,
		Title:           title,
		IsCompleted:     completed,
		RepeatPeriod:    period,
		RepeatFrequency: freq,
		RepeatWeekdays:  weekdays,
		CreatedAt:       createdAt,
	}
	require.NoError(t, f.tasks.Create(context.Background(), &task))
	return task
}

func (f *fixture) seedStats(t *testing.T, health, happiness int) {
	t.Helper()
	ctx := context.Background()
	_, err := f.statsSvc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	statsRepo := repository.NewStatsRepository(f.db)
	require.NoError(t, statsRepo.Adjust(ctx, f.user.ID, health, happiness, time.Now()))
}

func pp(p model.Period) *model.Period { return &p }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRollover_SecondRunOfDayIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	f.seedStats(t, 100, 100)
	f.seedTask(t, "stretch", pp(model.PeriodDaily), 1, "", day(2025, time.March, 1), false)

	first, err := f.rollover.Run(ctx, f.user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, service.RolloverSettled, first.State)
	assert.True(t, first.FirstOfDay)

	statsAfterFirst, err := f.statsSvc.Get(ctx, f.user.ID)
	require.NoError(t, err)

	second, err := f.rollover.Run(ctx, f.user.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, service.RolloverSettled, second.State)
	assert.False(t, second.FirstOfDay)
	assert.Empty(t, second.Missed)

	statsAfterSecond, err := f.statsSvc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, statsAfterFirst.Health, statsAfterSecond.Health)
	assert.Equal(t, statsAfterFirst.Happiness, statsAfterSecond.Happiness)
}

func TestRollover_PenalizesMissedAndResetsRecurring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Monday 2025-03-10; yesterday is Sunday 2025-03-09.
	now := time.Date(2025, time.March, 10, 7, 30, 0, 0, time.UTC)

	f.seedStats(t, 100, 100)

	missedA := f.seedTask(t, "run", pp(model.PeriodDaily), 1, "", day(2025, time.March, 1), false)
	missedB := f.seedTask(t, "read", pp(model.PeriodDaily), 1, "", day(2025, time.March, 5), false)
	// Daily with frequency 3 was not due yesterday (1 elapsed day).
	notDue := f.seedTask(t, "stretch", pp(model.PeriodDaily), 3, "", day(2025, time.March, 8), false)
	// Completed weekly task: excluded from the missed set, still reset.
	doneWeekly := f.seedTask(t, "plan week", pp(model.PeriodWeekly), 1, "mon", day(2025, time.March, 3), true)
	// Incomplete one-off: always due, so it counts as missed.
	missedOneOff := f.seedTask(t, "file taxes", nil, 0, "", day(2025, time.February, 1), false)
	// Completed one-off: untouched by the reset.
	doneOneOff := f.seedTask(t, "buy plant", nil, 0, "", day(2025, time.February, 1), true)

	res, err := f.rollover.Run(ctx, f.user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, service.RolloverSettled, res.State)
	assert.True(t, res.FirstOfDay)

	missedIDs := make([]uint, 0, len(res.Missed))
	for _, task := range res.Missed {
		missedIDs = append(missedIDs, task.ID)
	}
	assert.ElementsMatch(t, []uint{missedA.ID, missedB.ID, missedOneOff.ID}, missedIDs)

	// Penalty: 16 * 3 missed tasks off both counters.
	stats, err := f.statsSvc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 52, stats.Health)
	assert.Equal(t, 52, stats.Happiness)

	// Recurring tasks are all incomplete now; one-offs kept their flags.
	for _, id := range []uint{missedA.ID, missedB.ID, notDue.ID, doneWeekly.ID} {
		got, err := f.tasks.FindByID(ctx, f.user.ID, id)
		require.NoError(t, err)
		assert.False(t, got.IsCompleted, "recurring task %d must be reset", id)
	}
	gotDone, err := f.tasks.FindByID(ctx, f.user.ID, doneOneOff.ID)
	require.NoError(t, err)
	assert.True(t, gotDone.IsCompleted, "completed one-off must keep its flag")
}

func TestRollover_NoMissedTasksNoPenalty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)

	f.seedStats(t, 40, 40)
	// Weekly on Mondays; yesterday was Sunday, so nothing was due.
	f.seedTask(t, "plan week", pp(model.PeriodWeekly), 1, "mon", day(2025, time.March, 3), false)

	res, err := f.rollover.Run(ctx, f.user.ID, now)
	require.NoError(t, err)
	assert.True(t, res.FirstOfDay)
	assert.Empty(t, res.Missed)

	stats, err := f.statsSvc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stats.Health)
	assert.Equal(t, 40, stats.Happiness)
}

func TestRollover_PenaltyFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)

	// Counters start at zero and cannot go negative.
	f.seedTask(t, "run", pp(model.PeriodDaily), 1, "", day(2025, time.March, 1), false)

	res, err := f.rollover.Run(ctx, f.user.ID, now)
	require.NoError(t, err)
	assert.Len(t, res.Missed, 1)

	stats, err := f.statsSvc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Health)
	assert.Equal(t, 0, stats.Happiness)
}

func TestRollover_MarkerRollsOverAcrossDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedStats(t, 100, 100)
	f.seedTask(t, "run", pp(model.PeriodDaily), 1, "", day(2025, time.March, 1), false)

	day1 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	res1, err := f.rollover.Run(ctx, f.user.ID, day1)
	require.NoError(t, err)
	assert.True(t, res1.FirstOfDay)

	day2 := time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
	res2, err := f.rollover.Run(ctx, f.user.ID, day2)
	require.NoError(t, err)
	assert.True(t, res2.FirstOfDay, "a new calendar day triggers a fresh rollover")
	assert.Len(t, res2.Missed, 1)
}
