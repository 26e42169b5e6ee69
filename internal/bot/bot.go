package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-quest/internal/config"
	"habit-quest/internal/model"
	"habit-quest/internal/repository"
	"habit-quest/internal/service"
)

const (
	cbTogglePrefix     = "toggle:"
	cbDeletePrefix     = "delete:"
	cbConfirmDelPrefix = "confirmdel:"
	cbCancelDel        = "canceldel"
)

const (
	btnSkip         = "⏭️ Пропустить"
	btnCancelDialog = "⏪ Отменить ввод"
	menuLabelNew    = "➕ Новая задача"
	menuLabelToday  = "📋 Сегодня"
	menuLabelStats  = "📊 Статистика"
	menuLabelHelp   = "ℹ️ Помощь"
)

func firstVisitKey(userID uint) string {
	return fmt.Sprintf("first_visit:%d", userID)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	settingsRepo  *repository.SettingsRepository
	taskSvc       *service.TaskService
	statsSvc      *service.StatsService
	rolloverSvc   *service.RolloverService
	summarySvc    *service.SummaryService
	config        *config.Config
	log           *zap.Logger
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, settingsRepo *repository.SettingsRepository, taskSvc *service.TaskService, statsSvc *service.StatsService, rolloverSvc *service.RolloverService, summarySvc *service.SummaryService, cfg *config.Config, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		settingsRepo:  settingsRepo,
		taskSvc:       taskSvc,
		statsSvc:      statsSvc,
		rolloverSvc:   rolloverSvc,
		summarySvc:    summarySvc,
		config:        cfg,
		log:           log,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Warn("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Warn("handle message", zap.Error(err))
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	// Every interaction may be the first one today.
	b.ensureRollover(ctx, user, msg.Chat.ID)

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Диалог создания задачи отменён.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command",
			zap.Int64("from", msg.From.ID),
			zap.String("command", msg.Command()))
		return b.handleCommand(ctx, user, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, user, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, user, msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID, user, true)
	case "all":
		return b.sendTaskList(ctx, msg.Chat.ID, user, false)
	case "stats":
		return b.handleStats(ctx, user, msg)
	case "report":
		return b.handleReport(ctx, user, msg)
	case "delete":
		return b.handleDelete(ctx, user, msg)
	case "resethistory":
		return b.handleResetHistory(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Диалог создания задачи отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	visited, err := b.settingsRepo.Get(ctx, firstVisitKey(user.ID))
	if err != nil {
		return err
	}
	if visited == "" {
		if err := b.settingsRepo.Set(ctx, firstVisitKey(user.ID), time.Now().Format("2006-01-02")); err != nil {
			return err
		}
		text := fmt.Sprintf(
			"👋 Привет, %s!\n<b>Я трекер привычек: выполняй задачи и следи за здоровьем и счастьем.</b>\n\n"+
				"За каждую выполненную задачу начисляются очки ❤️ здоровья и 😊 счастья, "+
				"а за пропущенные накануне — снимаются.\n\nНачни с /newtask.",
			escape(name),
		)
		return b.sendText(msg.Chat.ID, text)
	}

	text := fmt.Sprintf(
		"👋 С возвращением, %s!\n\nКоманды:\n"+
			"• /newtask — добавить задачу или привычку\n"+
			"• /tasks — задачи на сегодня\n"+
			"• /all — все задачи\n"+
			"• /stats — здоровье, счастье и успешность\n"+
			"• /report — дневной отчёт\n"+
			"• /delete &lt;id&gt; — удалить задачу\n"+
			"• /resethistory — очистить историю выполнений\n"+
			"• /cancel — отменить текущий ввод",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /newtask — добавить задачу пошагово (повтор, подзадачи)\n" +
		"• /tasks — задачи на сегодня, выполняй по кнопке\n" +
		"• /all — полный список задач\n" +
		"• /stats — ❤️ здоровье, 😊 счастье и процент успешности привычек\n" +
		"• /report — дневной отчёт\n" +
		"• /delete &lt;id&gt; — удалить задачу полностью\n" +
		"• /resethistory — очистить историю выполнений всех задач\n" +
		"• /cancel — отменить текущий ввод"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStats(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	stats, err := b.statsSvc.Get(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить статистику: %s", escape(err.Error())))
	}

	tasks, err := b.taskSvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}

	var builder strings.Builder
	builder.WriteString("📊 <b>Статистика</b>\n")
	builder.WriteString(fmt.Sprintf("❤️ Здоровье: <b>%d</b>\n😊 Счастье: <b>%d</b>\n", stats.Health, stats.Happiness))

	now := time.Now()
	wroteHeader := false
	for _, task := range tasks {
		if !task.Repeats() {
			continue
		}
		pct, err := b.taskSvc.SuccessPercentage(ctx, task, now)
		if err != nil {
			continue
		}
		if !wroteHeader {
			builder.WriteString("\n📈 <b>Успешность привычек</b>\n")
			wroteHeader = true
		}
		builder.WriteString(fmt.Sprintf("• %s — %.0f%%\n", escape(shortTitle(task.Title, 30)), pct))
	}

	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleReport(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	text, err := b.summarySvc.DailySummary(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

// handleDelete removes a task entirely, recurring ones included.
func (b *Bot) handleDelete(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete 12")
	}

	taskID64, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "ID задачи должен быть числом.")
	}

	task, err := b.taskSvc.Get(ctx, user, uint(taskID64))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(msg.Chat.ID, "Задача не найдена.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	if err := b.taskSvc.Delete(ctx, user, task.ID); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось удалить задачу: %s", escape(err.Error())))
	}

	b.log.Info("task deleted", zap.Uint("task_id", task.ID), zap.Uint("user_id", user.ID))
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Задача «%s» удалена вместе с подзадачами.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleResetHistory(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.taskSvc.ResetHistory(ctx); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось очистить историю: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, "🧹 История выполнений очищена. Проценты успешности начнут считаться заново.")
}

// ensureRollover runs the once-per-day reset and pushes the yesterday review
// when there were missed tasks. Errors are logged, not surfaced: the rollover
// must never block normal interaction.
func (b *Bot) ensureRollover(ctx context.Context, user *model.User, chatID int64) {
	res, err := b.rolloverSvc.Run(ctx, user.ID, time.Now())
	if err != nil {
		b.log.Warn("daily rollover failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	if !res.FirstOfDay || len(res.Missed) == 0 {
		return
	}

	var builder strings.Builder
	builder.WriteString("🌅 <b>Вчерашние задачи</b>\n")
	builder.WriteString("Эти задачи остались невыполненными, очки здоровья и счастья снижены:\n\n")
	for _, task := range res.Missed {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(normalizeTitle(task.Title))))
	}
	if err := b.sendText(chatID, strings.TrimSpace(builder.String())); err != nil {
		b.log.Warn("send yesterday review", zap.Error(err))
	}
}

// RunDailySweep runs the rollover for every known user and notifies those who
// missed tasks. Wired to the nightly cron job.
func (b *Bot) RunDailySweep(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b.ensureRollover(ctx, &user, user.TelegramID)
	}
	return nil
}

// SendDailyReports sends a digest to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.summarySvc.DailySummary(ctx, user, now)
		if err != nil {
			b.log.Warn("build summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.Warn("send summary", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		}
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		taskID, err := parseTaskID(data, cbTogglePrefix)
		if err != nil {
			return nil
		}
		return b.toggleTaskAndRefresh(ctx, chatID, user, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, user, taskID)
	case strings.HasPrefix(data, cbConfirmDelPrefix):
		taskID, err := parseTaskID(data, cbConfirmDelPrefix)
		if err != nil {
			return nil
		}
		if err := b.taskSvc.Delete(ctx, user, taskID); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
		}
		if err := b.sendText(chatID, "🗑 Задача удалена."); err != nil {
			return err
		}
		return b.sendTaskList(ctx, chatID, user, true)
	case data == cbCancelDel:
		return b.sendText(chatID, "Удаление отменено.")
	default:
		return nil
	}
}

func (b *Bot) toggleTaskAndRefresh(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, err := b.taskSvc.ToggleComplete(ctx, user, taskID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Задача не найдена или уже удалена.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	var info string
	if task.IsCompleted {
		info = fmt.Sprintf("✅ Задача «%s» выполнена! Очки начислены.", escape(normalizeTitle(task.Title)))
	} else {
		info = fmt.Sprintf("⬜️ Задача «%s» снова открыта. Начисленные очки остаются.", escape(normalizeTitle(task.Title)))
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user, true)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, user *model.User, taskID uint) error {
	task, err := b.taskSvc.Get(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return err
	}

	text := fmt.Sprintf("Удалить задачу «%s» (#%d) вместе с подзадачами?", escape(normalizeTitle(task.Title)), task.ID)
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Удалить", fmt.Sprintf("%s%d", cbConfirmDelPrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Отмена", cbCancelDel),
		),
	)
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return true, err
	}
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNew):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelToday):
		return true, b.sendTaskList(ctx, msg.Chat.ID, user, true)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, user, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
