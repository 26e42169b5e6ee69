package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"habit-quest/internal/model"
	"habit-quest/internal/recurrence"
	"habit-quest/internal/repository"
)

// SummaryService builds human-readable digests for daily notifications.
type SummaryService struct {
	tasks   *repository.TaskRepository
	history *repository.HistoryRepository
	stats   *StatsService
	eval    *recurrence.Evaluator
}

func NewSummaryService(tasks *repository.TaskRepository, history *repository.HistoryRepository, stats *StatsService, eval *recurrence.Evaluator) *SummaryService {
	return &SummaryService{tasks: tasks, history: history, stats: stats, eval: eval}
}

// DailySummary renders today's due tasks together with the user's counters
// and per-habit success percentages.
func (s *SummaryService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.tasks.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	stats, err := s.stats.Get(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var due []model.Task
	for _, task := range tasks {
		if s.eval.IsDue(task, now) {
			due = append(due, task)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Задачи на сегодня</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))
	builder.WriteString(fmt.Sprintf("❤️ Здоровье: <b>%d</b> · 😊 Счастье: <b>%d</b>\n\n", stats.Health, stats.Happiness))

	if len(due) == 0 {
		builder.WriteString("— на сегодня задач нет\n")
		return strings.TrimSpace(builder.String()), nil
	}

	for _, task := range due {
		builder.WriteString(s.formatLine(ctx, task, now))
	}

	return strings.TrimSpace(builder.String()), nil
}

func (s *SummaryService) formatLine(ctx context.Context, task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "⬜️"
	if task.IsCompleted {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, html.EscapeString(strings.TrimSpace(task.Title))))

	if task.Repeats() {
		sb.WriteString(fmt.Sprintf(" %s", periodBadge(*task.RepeatPeriod)))
		if count, err := s.history.CountByTask(ctx, task.ID); err == nil {
			pct := recurrence.SuccessPercentage(task, count, now)
			if pct > 0 {
				sb.WriteString(fmt.Sprintf("\n   📈 Успешность: %.0f%%", pct))
			}
		}
	}

	done := 0
	for _, item := range task.Checklist {
		if item.IsCompleted {
			done++
		}
	}
	if len(task.Checklist) > 0 {
		sb.WriteString(fmt.Sprintf("\n   ☑️ Подзадачи: %d/%d", done, len(task.Checklist)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func periodBadge(period model.Period) string {
	switch period {
	case model.PeriodDaily:
		return "🔁 ежедневно"
	case model.PeriodWeekly:
		return "🔁 еженедельно"
	case model.PeriodMonthly:
		return "🔁 ежемесячно"
	case model.PeriodYearly:
		return "🔁 ежегодно"
	default:
		return "🔁"
	}
}
