package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"runner-progression/internal/constants"
	"runner-progression/internal/database"
	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"

	"github.com/rs/zerolog"
)

type RankService struct {
	db         *sql.DB
	rankRepo   *repository.RankRepository
	seasonRepo *repository.SeasonRepository
	guard      *PlayerGuard
	bus        *notify.Bus
	logger     zerolog.Logger
}

func NewRankService(sqlDB *sql.DB, rankRepo *repository.RankRepository, seasonRepo *repository.SeasonRepository, guard *PlayerGuard, bus *notify.Bus, logger zerolog.Logger) *RankService {
	return &RankService{db: sqlDB, rankRepo: rankRepo, seasonRepo: seasonRepo, guard: guard, bus: bus, logger: logger}
}

// ApplyMatchResult applies a signed trophy delta and lifts the peak-trophy
// watermark of the player's open seasons in the same transaction. When the
// caller names a season it is created on first sight.
func (s *RankService) ApplyMatchResult(ctx context.Context, playerID string, delta int64, seasonID string) (*domain.RankState, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.guard.Lock(playerID)
	defer unlock()

	s.logger.Info().
		Str("player_id", playerID).
		Int64("delta", delta).
		Str("season_id", seasonID).
		Msg("applying match result")

	var state domain.RankState
	err := database.WithRetry(ctx, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			now := time.Now()

			current, err := s.rankRepo.Get(ctx, tx, playerID)
			if errors.Is(err, domain.ErrNotFound) {
				fresh := domain.NewRankState(playerID, now)
				current = &fresh
			} else if err != nil {
				return err
			}

			state = domain.ApplyDelta(*current, delta, now)
			if err := s.rankRepo.Upsert(ctx, tx, state); err != nil {
				return err
			}

			if seasonID != "" {
				if err := s.seasonRepo.EnsureOpen(ctx, tx, playerID, seasonID, now); err != nil {
					return err
				}
			}
			return s.seasonRepo.RaiseWatermark(ctx, tx, playerID, state.Trophies, now)
		})
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("player_id", playerID).
			Int64("delta", delta).
			Msg("failed to apply match result")
		return nil, err
	}

	s.bus.Publish(playerID, notify.EventRankChanged, map[string]any{
		"trophies": state.Trophies,
		"tier":     string(state.Tier),
		"prestige": state.Prestige,
		"delta":    delta,
	})

	return &state, nil
}

// Rank returns the player's standing; a player with no matches yet sits at
// the bottom of the ladder.
func (s *RankService) Rank(ctx context.Context, playerID string) (*domain.RankState, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	state, err := s.rankRepo.Get(ctx, s.db, playerID)
	if errors.Is(err, domain.ErrNotFound) {
		fresh := domain.NewRankState(playerID, time.Now())
		return &fresh, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}
