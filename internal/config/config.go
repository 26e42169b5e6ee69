package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"habit-quest/internal/service"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	RolloverTime   string // HH:MM local time for the nightly rollover sweep
	ReportInterval time.Duration
	Development    bool
	RewardBands    service.RewardBands
}

// Load reads configuration from the environment, with a .env file picked up
// first when present.
func Load() (Config, error) {
	// Missing .env is fine: plain env vars still apply.
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RolloverTime:   strings.TrimSpace(os.Getenv("ROLLOVER_TIME")),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		Development:    parseBool(os.Getenv("LOG_DEV")),
		RewardBands:    service.DefaultRewardBands(),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "habit_quest.db"
	}

	if cfg.RolloverTime == "" {
		cfg.RolloverTime = "00:05"
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
