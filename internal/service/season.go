package service

import (
	"context"
	"database/sql"
	"time"

	"runner-progression/internal/constants"
	"runner-progression/internal/database"
	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type SeasonService struct {
	db         *sql.DB
	seasonRepo *repository.SeasonRepository
	ledgerRepo *repository.LedgerRepository
	guard      *PlayerGuard
	claims     singleflight.Group
	bus        *notify.Bus
	logger     zerolog.Logger
}

func NewSeasonService(sqlDB *sql.DB, seasonRepo *repository.SeasonRepository, ledgerRepo *repository.LedgerRepository, guard *PlayerGuard, bus *notify.Bus, logger zerolog.Logger) *SeasonService {
	return &SeasonService{db: sqlDB, seasonRepo: seasonRepo, ledgerRepo: ledgerRepo, guard: guard, bus: bus, logger: logger}
}

func (s *SeasonService) Season(ctx context.Context, playerID, seasonID string) (*domain.SeasonRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.seasonRepo.Get(ctx, s.db, playerID, seasonID)
}

// Close freezes the season: the gem reward is computed from the peak-trophy
// watermark exactly once and persisted. Closing an already-closed season
// returns the stored record untouched, so a later balance-table change can
// never retroactively alter an earlier reward.
func (s *SeasonService) Close(ctx context.Context, playerID, seasonID string) (*domain.SeasonRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.guard.Lock(playerID)
	defer unlock()

	var record *domain.SeasonRecord
	err := database.WithRetry(ctx, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			now := time.Now()

			current, err := s.seasonRepo.Get(ctx, tx, playerID, seasonID)
			if err != nil {
				return err
			}
			if current.Closed {
				record = current
				return nil
			}

			reward := domain.GemReward(current.PeakTrophies)
			if _, err := s.seasonRepo.Close(ctx, tx, playerID, seasonID, reward, now); err != nil {
				return err
			}

			current.Closed = true
			current.GemReward = reward
			current.UpdatedAt = now
			record = current
			return nil
		})
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("player_id", playerID).
			Str("season_id", seasonID).
			Msg("failed to close season")
		return nil, err
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("season_id", seasonID).
		Int64("peak_trophies", record.PeakTrophies).
		Uint64("gem_reward", record.GemReward).
		Msg("season closed")

	return record, nil
}

// ClaimResult reports a settled claim. AlreadyClaimed is informational: a
// replayed claim succeeds with the original reward and credits nothing.
type ClaimResult struct {
	Granted        uint64
	AlreadyClaimed bool
}

// Claim settles the one-time season reward. Credit and claim-mark commit in
// one transaction; concurrent retries for the same season collapse onto a
// single flight and share its outcome.
func (s *SeasonService) Claim(ctx context.Context, playerID, seasonID string) (*ClaimResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	v, err, _ := s.claims.Do(playerID+":"+seasonID, func() (any, error) {
		return s.claim(ctx, playerID, seasonID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ClaimResult), nil
}

func (s *SeasonService) claim(ctx context.Context, playerID, seasonID string) (*ClaimResult, error) {
	unlock := s.guard.Lock(playerID)
	defer unlock()

	s.logger.Info().
		Str("player_id", playerID).
		Str("season_id", seasonID).
		Msg("claiming season reward")

	var result *ClaimResult
	err := database.WithRetry(ctx, func(ctx context.Context) error {
		result = nil
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			now := time.Now()

			record, err := s.seasonRepo.Get(ctx, tx, playerID, seasonID)
			if err != nil {
				return err
			}
			if !record.Closed {
				return domain.ErrSeasonOpen
			}
			if record.Claimed {
				result = &ClaimResult{Granted: record.GemReward, AlreadyClaimed: true}
				return nil
			}

			won, err := s.seasonRepo.MarkClaimed(ctx, tx, playerID, seasonID, now)
			if err != nil {
				return err
			}
			if !won {
				// Lost a race the guard should have prevented; settle as a
				// replay rather than double-credit.
				result = &ClaimResult{Granted: record.GemReward, AlreadyClaimed: true}
				return nil
			}

			if record.GemReward > 0 {
				if err := s.ledgerRepo.Ensure(ctx, tx, playerID, now); err != nil {
					return err
				}
				if err := s.ledgerRepo.Credit(ctx, tx, playerID, domain.CurrencyPremium, record.GemReward, now); err != nil {
					return err
				}
			}

			result = &ClaimResult{Granted: record.GemReward}
			return nil
		})
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("player_id", playerID).
			Str("season_id", seasonID).
			Msg("failed to claim season reward")
		return nil, err
	}

	if !result.AlreadyClaimed {
		s.bus.Publish(playerID, notify.EventSeasonRewardGranted, map[string]any{
			"season_id":  seasonID,
			"gem_reward": result.Granted,
		})
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("season_id", seasonID).
		Uint64("granted", result.Granted).
		Bool("already_claimed", result.AlreadyClaimed).
		Msg("season reward settled")

	return result, nil
}
