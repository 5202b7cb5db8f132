package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"runner-progression/internal/constants"
	"runner-progression/internal/database"
	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"

	"github.com/rs/zerolog"
)

type UpgradeService struct {
	db             *sql.DB
	collectionRepo *repository.CollectionRepository
	ledgerRepo     *repository.LedgerRepository
	guard          *PlayerGuard
	bus            *notify.Bus
	logger         zerolog.Logger
}

func NewUpgradeService(sqlDB *sql.DB, collectionRepo *repository.CollectionRepository, ledgerRepo *repository.LedgerRepository, guard *PlayerGuard, bus *notify.Bus, logger zerolog.Logger) *UpgradeService {
	return &UpgradeService{db: sqlDB, collectionRepo: collectionRepo, ledgerRepo: ledgerRepo, guard: guard, bus: bus, logger: logger}
}

// UpgradeResult reports what a successful upgrade consumed and produced.
type UpgradeResult struct {
	Record         domain.CardRecord
	Stats          domain.CardStats
	CopiesConsumed uint
	CoinCost       uint64
}

// UpgradeRejection carries enough detail for the presentation layer to show
// the exact shortfall.
type UpgradeRejection struct {
	Reason         error
	CopiesNeeded   uint
	CopiesHeld     uint
	CoinCost       uint64
	CoinBalance    uint64
	CoinShortfall  uint64
	CopiesShortage uint
}

func (r *UpgradeRejection) Error() string {
	return fmt.Sprintf("upgrade rejected: %v", r.Reason)
}

func (r *UpgradeRejection) Unwrap() error { return r.Reason }

// Upgrade advances one card a single step, consuming copies and coins. The
// debit and the record mutation commit together; a rejection leaves both the
// ledger and the record untouched.
func (s *UpgradeService) Upgrade(ctx context.Context, playerID, cardID string) (*UpgradeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.guard.Lock(playerID)
	defer unlock()

	s.logger.Info().
		Str("player_id", playerID).
		Str("card_id", cardID).
		Msg("upgrading card")

	var result *UpgradeResult
	err := database.WithRetry(ctx, func(ctx context.Context) error {
		result = nil
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			now := time.Now()

			record, err := s.collectionRepo.Get(ctx, tx, playerID, cardID)
			if err != nil {
				return err
			}

			copiesNeeded, coinCost := domain.UpgradeCost(*record)

			if record.Copies < copiesNeeded {
				return &UpgradeRejection{
					Reason:         domain.ErrInsufficientCopies,
					CopiesNeeded:   copiesNeeded,
					CopiesHeld:     record.Copies,
					CoinCost:       coinCost,
					CopiesShortage: copiesNeeded - record.Copies,
				}
			}

			// Funds are checked against the ledger, never against anything
			// the presentation layer claims to hold.
			if err := s.ledgerRepo.Ensure(ctx, tx, playerID, now); err != nil {
				return err
			}
			ledger, err := s.ledgerRepo.Get(ctx, tx, playerID)
			if err != nil {
				return err
			}
			if ledger.Soft < coinCost {
				return &UpgradeRejection{
					Reason:        domain.ErrInsufficientFunds,
					CopiesNeeded:  copiesNeeded,
					CopiesHeld:    record.Copies,
					CoinCost:      coinCost,
					CoinBalance:   ledger.Soft,
					CoinShortfall: coinCost - ledger.Soft,
				}
			}

			// Debit before mutating the record: the record must never lose
			// copies without the payment having gone through.
			if err := s.ledgerRepo.Debit(ctx, tx, playerID, domain.CurrencySoft, coinCost, now); err != nil {
				return err
			}

			upgraded := domain.ApplyUpgrade(*record)
			if err := s.collectionRepo.Update(ctx, tx, upgraded, now); err != nil {
				return err
			}

			result = &UpgradeResult{
				Record:         upgraded,
				Stats:          domain.StatsFor(upgraded),
				CopiesConsumed: copiesNeeded,
				CoinCost:       coinCost,
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("player_id", playerID).
			Str("card_id", cardID).
			Msg("upgrade not applied")
		return nil, err
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("card_id", cardID).
		Str("rarity", result.Record.Rarity.String()).
		Uint("level", result.Record.Level).
		Uint("prestige", result.Record.Prestige).
		Uint64("coin_cost", result.CoinCost).
		Msg("card upgraded")

	s.bus.Publish(playerID, notify.EventCardUpgraded, map[string]any{
		"card_id":         cardID,
		"rarity":          result.Record.Rarity.String(),
		"level":           result.Record.Level,
		"prestige":        result.Record.Prestige,
		"copies_consumed": result.CopiesConsumed,
		"coin_cost":       result.CoinCost,
	})

	return result, nil
}
