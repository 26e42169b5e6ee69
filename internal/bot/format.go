package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-quest/internal/model"
	"habit-quest/internal/recurrence"
)

// sendTaskList renders the task list with toggle/delete buttons. With
// dueOnly set it shows only tasks due today; otherwise the whole list in
// manual order.
func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User, dueOnly bool) error {
	var (
		tasks []model.Task
		err   error
	)
	if dueOnly {
		tasks, err = b.taskSvc.ListDueOn(ctx, user, time.Now())
	} else {
		tasks, err = b.taskSvc.List(ctx, user)
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}

	if len(tasks) == 0 {
		if dueOnly {
			return b.sendText(chatID, "На сегодня задач нет. Добавь новую через /newtask.")
		}
		return b.sendText(chatID, "Список задач пуст. Добавь новую через /newtask.")
	}

	var builder strings.Builder
	if dueOnly {
		builder.WriteString("📋 <b>Задачи на сегодня</b>\n")
	} else {
		builder.WriteString("📋 <b>Все задачи</b>\n")
	}
	builder.WriteString("Нажми на кнопку, чтобы отметить задачу или удалить её.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task))
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s #%d · %s", toggleIcon(task), task.ID, shortTitle(task.Title, 20)),
				fmt.Sprintf("%s%d", cbTogglePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		}
		buttons = append(buttons, row)
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func toggleIcon(task model.Task) string {
	if task.IsCompleted {
		return "✅"
	}
	return "⬜️"
}

func formatTask(task model.Task) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", toggleIcon(task), task.ID, escape(normalizeTitle(task.Title))))
	if task.Repeats() {
		b.WriteString(fmt.Sprintf("   %s\n", repeatDescription(task)))
	}
	if task.Notes != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Notes)))
	}
	for _, item := range task.Checklist {
		mark := "▫️"
		if item.IsCompleted {
			mark = "✔️"
		}
		b.WriteString(fmt.Sprintf("   %s %s\n", mark, escape(item.Content)))
	}
	b.WriteByte('\n')
	return b.String()
}

func repeatDescription(task model.Task) string {
	freq := task.Frequency()
	switch task.PeriodOrNone() {
	case model.PeriodDaily:
		if freq == 1 {
			return "🔁 каждый день"
		}
		return fmt.Sprintf("🔁 раз в %d дн.", freq)
	case model.PeriodWeekly:
		days := weekdayLabels(recurrence.ParseWeekdaySet(task.RepeatWeekdays))
		if freq == 1 {
			return fmt.Sprintf("🔁 еженедельно: %s", days)
		}
		return fmt.Sprintf("🔁 раз в %d нед.: %s", freq, days)
	case model.PeriodMonthly:
		if freq == 1 {
			return "🔁 каждый месяц"
		}
		return fmt.Sprintf("🔁 раз в %d мес.", freq)
	case model.PeriodYearly:
		if freq == 1 {
			return "🔁 каждый год"
		}
		return fmt.Sprintf("🔁 раз в %d г.", freq)
	default:
		return "🔁"
	}
}

var weekdayRu = map[recurrence.Weekday]string{
	recurrence.Monday: "пн", recurrence.Tuesday: "вт", recurrence.Wednesday: "ср",
	recurrence.Thursday: "чт", recurrence.Friday: "пт", recurrence.Saturday: "сб",
	recurrence.Sunday: "вс",
}

func weekdayLabels(set recurrence.WeekdaySet) string {
	var labels []string
	for day := recurrence.Monday; day <= recurrence.Sunday; day++ {
		if set.Has(day) {
			labels = append(labels, weekdayRu[day])
		}
	}
	if len(labels) == 0 {
		return "дни не выбраны"
	}
	return strings.Join(labels, ", ")
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(repeatNone),
			tgbotapi.NewKeyboardButton(repeatDaily),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(repeatWeekly),
			tgbotapi.NewKeyboardButton(repeatMonthly),
			tgbotapi.NewKeyboardButton(repeatYearly),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод" || value == "отмена"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func escape(s string) string {
	return html.EscapeString(s)
}
