package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"habit-quest/internal/model"
	"habit-quest/internal/recurrence"
	"habit-quest/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageNotes
	stageRepeat
	stageFrequency
	stageWeekdays
	stageChecklist
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

const (
	repeatNone    = "Без повтора"
	repeatDaily   = "Ежедневно"
	repeatWeekly  = "Еженедельно"
	repeatMonthly = "Ежемесячно"
	repeatYearly  = "Ежегодно"
)

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.log.Info("start new task conversation", zap.Int64("user", msg.From.ID))
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Попробуй ещё раз.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageNotes
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь заметку — можно с markdown (или нажми «Пропустить»).", skipKeyboard())

	case stageNotes:
		if !isSkipInput(text) {
			state.input.Notes = text
		}
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Как часто повторять задачу?", repeatKeyboard())

	case stageRepeat:
		period, recognized := parseRepeatChoice(text)
		if !recognized {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант повтора с клавиатуры.", repeatKeyboard())
		}
		state.input.RepeatPeriod = period
		if period == nil {
			state.stage = stageChecklist
			return b.sendWithReplyMarkup(msg.Chat.ID, checklistPrompt, skipKeyboard())
		}
		state.stage = stageFrequency
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔢 Раз в сколько периодов повторять? (1 = каждый, 2 = через один, ...)", tgbotapi.NewRemoveKeyboard(true))

	case stageFrequency:
		freq, err := strconv.Atoi(text)
		if err != nil || freq < 1 || freq > 365 {
			return b.sendText(msg.Chat.ID, "Частота должна быть числом от 1 до 365.")
		}
		state.input.RepeatFrequency = freq
		if state.input.RepeatPeriod != nil && *state.input.RepeatPeriod == model.PeriodWeekly {
			state.stage = stageWeekdays
			return b.sendWithReplyMarkup(msg.Chat.ID, "📅 В какие дни недели? Перечисли через запятую: пн, ср, пт", tgbotapi.NewRemoveKeyboard(true))
		}
		state.stage = stageChecklist
		return b.sendWithReplyMarkup(msg.Chat.ID, checklistPrompt, skipKeyboard())

	case stageWeekdays:
		set := parseWeekdayInput(text)
		if len(set) == 0 {
			return b.sendText(msg.Chat.ID, "Не распознал дни недели. Пример: пн, ср, пт")
		}
		state.input.RepeatWeekdays = set
		state.stage = stageChecklist
		return b.sendWithReplyMarkup(msg.Chat.ID, checklistPrompt, skipKeyboard())

	case stageChecklist:
		if !isSkipInput(text) {
			for _, line := range strings.Split(text, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					state.input.Checklist = append(state.input.Checklist, line)
				}
			}
		}
		err := b.finishTaskCreation(ctx, user, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

const checklistPrompt = "☑️ Добавь подзадачи, каждую с новой строки (или нажми «Пропустить»)."

func (b *Bot) finishTaskCreation(ctx context.Context, user *model.User, input service.TaskInput, chatID int64) error {
	task, err := b.taskSvc.Create(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}

	b.log.Info("task created",
		zap.Uint("task_id", task.ID),
		zap.Uint("user_id", user.ID),
		zap.Bool("repeats", task.Repeats()))

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Notes != "" {
		summary.WriteString(fmt.Sprintf("• <b>Заметка:</b> %s\n", escape(task.Notes)))
	}
	if task.Repeats() {
		summary.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s\n", repeatDescription(*task)))
	}
	if n := len(input.Checklist); n > 0 {
		summary.WriteString(fmt.Sprintf("• <b>Подзадачи:</b> %d\n", n))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, true)
}

func parseRepeatChoice(text string) (*model.Period, bool) {
	var period model.Period
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(repeatNone), "нет", "no", "-":
		return nil, true
	case strings.ToLower(repeatDaily):
		period = model.PeriodDaily
	case strings.ToLower(repeatWeekly):
		period = model.PeriodWeekly
	case strings.ToLower(repeatMonthly):
		period = model.PeriodMonthly
	case strings.ToLower(repeatYearly):
		period = model.PeriodYearly
	default:
		return nil, false
	}
	return &period, true
}

var weekdayAliases = map[string]recurrence.Weekday{
	"пн": recurrence.Monday, "вт": recurrence.Tuesday, "ср": recurrence.Wednesday,
	"чт": recurrence.Thursday, "пт": recurrence.Friday, "сб": recurrence.Saturday,
	"вс": recurrence.Sunday,
}

// parseWeekdayInput accepts both Russian abbreviations and storage tags.
func parseWeekdayInput(text string) recurrence.WeekdaySet {
	set := make(recurrence.WeekdaySet)
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		if day, ok := weekdayAliases[part]; ok {
			set[day] = struct{}{}
			continue
		}
		if day, ok := recurrence.ParseWeekday(part); ok {
			set[day] = struct{}{}
		}
	}
	return set
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
