package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habit-quest/internal/model"
	"habit-quest/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user, err := repository.NewUserRepository(db).
		UpsertFromTelegram(context.Background(), 7, "Repo", "Tester", "repo")
	require.NoError(t, err)
	return user
}

func TestSettingsRepository(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	value, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, repo.Set(ctx, "last_rollover_date:1", "2025-03-10"))
	value, err = repo.Get(ctx, "last_rollover_date:1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", value)

	// Upsert overwrites in place.
	require.NoError(t, repo.Set(ctx, "last_rollover_date:1", "2025-03-11"))
	value, err = repo.Get(ctx, "last_rollover_date:1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", value)

	require.NoError(t, repo.Delete(ctx, "last_rollover_date:1"))
	value, err = repo.Get(ctx, "last_rollover_date:1")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestStatsRepository_AdjustFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewStatsRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()
	now := time.Now()

	stats, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Health)
	assert.Zero(t, stats.Happiness)

	// GetOrCreate is idempotent.
	again, err := repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.ID, again.ID)

	require.NoError(t, repo.Adjust(ctx, user.ID, 10, 20, now))
	stats, err = repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Health)
	assert.Equal(t, 20, stats.Happiness)

	// A penalty larger than the balance bottoms out at zero, independently
	// per counter.
	require.NoError(t, repo.Adjust(ctx, user.ID, -50, -5, now))
	stats, err = repo.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Health)
	assert.Equal(t, 15, stats.Happiness)
}

func TestChecklistRepository_ReplaceForTask(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	tasks := repository.NewTaskRepository(db)
	checklist := repository.NewChecklistRepository(db)
	ctx := context.Background()

	task := model.Task{UserID: user.ID, Title: "pack"}
	require.NoError(t, tasks.Create(ctx, &task))

	require.NoError(t, checklist.ReplaceForTask(ctx, task.ID, []model.ChecklistItem{
		{Content: "laptop"},
		{Content: "charger"},
	}))

	items, err := checklist.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "laptop", items[0].Content)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, "charger", items[1].Content)
	assert.Equal(t, 1, items[1].Position)

	// Replace drops the previous set entirely.
	require.NoError(t, checklist.ReplaceForTask(ctx, task.ID, []model.ChecklistItem{
		{Content: "passport"},
	}))
	items, err = checklist.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "passport", items[0].Content)

	// An empty save clears the checklist.
	require.NoError(t, checklist.ReplaceForTask(ctx, task.ID, nil))
	items, err = checklist.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTaskRepository_ResetRecurringLeavesOneOffs(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	tasks := repository.NewTaskRepository(db)
	ctx := context.Background()

	daily := model.PeriodDaily
	recurring := model.Task{UserID: user.ID, Title: "run", RepeatPeriod: &daily, IsCompleted: true}
	oneOff := model.Task{UserID: user.ID, Title: "file taxes", IsCompleted: true}
	require.NoError(t, tasks.Create(ctx, &recurring))
	require.NoError(t, tasks.Create(ctx, &oneOff))

	require.NoError(t, tasks.ResetRecurring(ctx, user.ID, time.Now()))

	gotRecurring, err := tasks.FindByID(ctx, user.ID, recurring.ID)
	require.NoError(t, err)
	assert.False(t, gotRecurring.IsCompleted)

	gotOneOff, err := tasks.FindByID(ctx, user.ID, oneOff.ID)
	require.NoError(t, err)
	assert.True(t, gotOneOff.IsCompleted)
}

func TestTaskRepository_ListIncomplete(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	tasks := repository.NewTaskRepository(db)
	ctx := context.Background()

	open := model.Task{UserID: user.ID, Title: "open"}
	done := model.Task{UserID: user.ID, Title: "done", IsCompleted: true}
	require.NoError(t, tasks.Create(ctx, &open))
	require.NoError(t, tasks.Create(ctx, &done))

	got, err := tasks.ListIncomplete(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)
}

func TestTaskRepository_DeleteCascadesChecklist(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	tasks := repository.NewTaskRepository(db)
	checklist := repository.NewChecklistRepository(db)
	ctx := context.Background()

	task := model.Task{UserID: user.ID, Title: "trip"}
	require.NoError(t, tasks.Create(ctx, &task))
	require.NoError(t, checklist.ReplaceForTask(ctx, task.ID, []model.ChecklistItem{
		{Content: "tickets"},
	}))

	require.NoError(t, tasks.Delete(ctx, user.ID, task.ID))

	_, err := tasks.FindByID(ctx, user.ID, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	items, err := checklist.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHistoryRepository_AppendOnly(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	tasks := repository.NewTaskRepository(db)
	history := repository.NewHistoryRepository(db)
	ctx := context.Background()

	task := model.Task{UserID: user.ID, Title: "read"}
	require.NoError(t, tasks.Create(ctx, &task))

	require.NoError(t, history.Append(ctx, task.ID, time.Now()))
	require.NoError(t, history.Append(ctx, task.ID, time.Now()))

	count, err := history.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, history.DeleteAll(ctx))
	count, err = history.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
