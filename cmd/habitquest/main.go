package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"habit-quest/internal/bot"
	"habit-quest/internal/config"
	"habit-quest/internal/logger"
	"habit-quest/internal/recurrence"
	"habit-quest/internal/repository"
	"habit-quest/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	eval := recurrence.NewEvaluator(zl)
	statsSvc := service.NewStatsService(statsRepo, cfg.RewardBands, nil, zl)
	taskSvc := service.NewTaskService(taskRepo, checklistRepo, historyRepo, statsSvc, eval, zl)
	rolloverSvc := service.NewRolloverService(taskRepo, settingsRepo, statsSvc, eval, zl)
	summarySvc := service.NewSummaryService(taskRepo, historyRepo, statsSvc, eval)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, settingsRepo, taskSvc, statsSvc, rolloverSvc, summarySvc, &cfg, zl)
	if err != nil {
		zl.Fatal("create bot", zap.Error(err))
	}

	scheduler := service.NewSchedulerService(time.Local, zl)
	if _, err := scheduler.ScheduleDaily(cfg.RolloverTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.RunDailySweep(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			zl.Warn("rollover sweep", zap.Error(err))
		}
	}); err != nil {
		zl.Fatal("schedule rollover sweep", zap.Error(err))
	}
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Warn("report", zap.Error(err))
			}
		}); err != nil {
			zl.Fatal("schedule reports", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	zl.Info("habit quest bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("bot stopped with error", zap.Error(err))
	}
	zl.Info("shutdown complete")
}
