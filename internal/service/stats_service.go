package service

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"habit-quest/internal/model"
	"habit-quest/internal/repository"
)

// RewardBands is the canonical table of random stat amounts. Completion
// rewards and miss penalties draw from these closed ranges.
type RewardBands struct {
	HealthMin    int
	HealthMax    int
	HappinessMin int
	HappinessMax int
	PenaltyMin   int
	PenaltyMax   int
}

func DefaultRewardBands() RewardBands {
	return RewardBands{
		HealthMin:    2,
		HealthMax:    4,
		HappinessMin: 2,
		HappinessMax: 8,
		PenaltyMin:   16,
		PenaltyMax:   24,
	}
}

// RollFunc draws a uniform integer in [min, max]. Tests inject a
// deterministic one.
type RollFunc func(min, max int) int

func defaultRoll(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}

// StatsService applies gamification rewards and penalties to the per-user
// health/happiness counters.
type StatsService struct {
	stats *repository.StatsRepository
	bands RewardBands
	roll  RollFunc
	log   *zap.Logger
}

func NewStatsService(stats *repository.StatsRepository, bands RewardBands, roll RollFunc, log *zap.Logger) *StatsService {
	if roll == nil {
		roll = defaultRoll
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsService{stats: stats, bands: bands, roll: roll, log: log}
}

// Get returns the user's counters, creating the row on first touch.
func (s *StatsService) Get(ctx context.Context, userID uint) (*model.Stats, error) {
	return s.stats.GetOrCreate(ctx, userID)
}

// RewardCompletion grants the completion reward: independent draws for each
// counter. Untoggling a task later never reverses the grant.
func (s *StatsService) RewardCompletion(ctx context.Context, userID uint, at time.Time) error {
	if _, err := s.stats.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	health := s.roll(s.bands.HealthMin, s.bands.HealthMax)
	happiness := s.roll(s.bands.HappinessMin, s.bands.HappinessMax)
	if err := s.stats.Adjust(ctx, userID, health, happiness, at); err != nil {
		return err
	}
	s.log.Info("completion reward granted",
		zap.Uint("user_id", userID),
		zap.Int("health", health),
		zap.Int("happiness", happiness))
	return nil
}

// PenalizeMissed subtracts the miss penalty, scaled by the number of missed
// tasks. One draw per counter per call, not per task.
func (s *StatsService) PenalizeMissed(ctx context.Context, userID uint, missedCount int, at time.Time) error {
	if missedCount <= 0 {
		return nil
	}
	if _, err := s.stats.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	health := s.roll(s.bands.PenaltyMin, s.bands.PenaltyMax) * missedCount
	happiness := s.roll(s.bands.PenaltyMin, s.bands.PenaltyMax) * missedCount
	if err := s.stats.Adjust(ctx, userID, -health, -happiness, at); err != nil {
		return err
	}
	s.log.Info("miss penalty applied",
		zap.Uint("user_id", userID),
		zap.Int("missed", missedCount),
		zap.Int("health", health),
		zap.Int("happiness", happiness))
	return nil
}
