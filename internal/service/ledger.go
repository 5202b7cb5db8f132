package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"runner-progression/internal/constants"
	"runner-progression/internal/database"
	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"

	"github.com/rs/zerolog"
)

type LedgerService struct {
	db         *sql.DB
	ledgerRepo *repository.LedgerRepository
	grantRepo  *repository.GrantRepository
	guard      *PlayerGuard
	bus        *notify.Bus
	logger     zerolog.Logger
}

func NewLedgerService(sqlDB *sql.DB, ledgerRepo *repository.LedgerRepository, grantRepo *repository.GrantRepository, guard *PlayerGuard, bus *notify.Bus, logger zerolog.Logger) *LedgerService {
	return &LedgerService{db: sqlDB, ledgerRepo: ledgerRepo, grantRepo: grantRepo, guard: guard, bus: bus, logger: logger}
}

// Ledger returns the player's balances. A player that never earned or spent
// anything has a zero ledger rather than no ledger.
func (s *LedgerService) Ledger(ctx context.Context, playerID string) (*domain.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	ledger, err := s.ledgerRepo.Get(ctx, s.db, playerID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Ledger{PlayerID: playerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// Grant applies a storefront currency grant exactly once per source
// transaction id. A replay returns the originally recorded grant and credits
// nothing.
func (s *LedgerService) Grant(ctx context.Context, playerID string, kind domain.CurrencyKind, amount uint64, sourceTransactionID string) (*domain.CurrencyGrant, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if amount == 0 {
		return nil, false, domain.ErrInvalidAmount
	}
	if sourceTransactionID == "" {
		return nil, false, fmt.Errorf("source transaction id is required")
	}

	unlock := s.guard.Lock(playerID)
	defer unlock()

	s.logger.Info().
		Str("player_id", playerID).
		Str("kind", string(kind)).
		Uint64("amount", amount).
		Str("source_transaction_id", sourceTransactionID).
		Msg("applying currency grant")

	var grant *domain.CurrencyGrant
	var applied bool

	err := database.WithRetry(ctx, func(ctx context.Context) error {
		grant, applied = nil, false
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			now := time.Now()

			if err := s.ledgerRepo.Ensure(ctx, tx, playerID, now); err != nil {
				return err
			}

			insertErr := s.grantRepo.Insert(ctx, tx, domain.CurrencyGrant{
				PlayerID:            playerID,
				SourceTransactionID: sourceTransactionID,
				Kind:                kind,
				Amount:              amount,
				CreatedAt:           now,
			})
			if errors.Is(insertErr, domain.ErrDuplicateGrant) {
				existing, err := s.grantRepo.Get(ctx, tx, playerID, sourceTransactionID)
				if err != nil {
					return err
				}
				grant = existing
				return nil
			}
			if insertErr != nil {
				return insertErr
			}

			if err := s.ledgerRepo.Credit(ctx, tx, playerID, kind, amount, now); err != nil {
				return err
			}

			grant = &domain.CurrencyGrant{
				PlayerID:            playerID,
				SourceTransactionID: sourceTransactionID,
				Kind:                kind,
				Amount:              amount,
				CreatedAt:           now,
			}
			applied = true
			return nil
		})
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("player_id", playerID).
			Str("source_transaction_id", sourceTransactionID).
			Msg("failed to apply currency grant")
		return nil, false, err
	}

	if applied {
		s.bus.Publish(playerID, notify.EventCurrencyGranted, map[string]any{
			"kind":                  string(kind),
			"amount":                amount,
			"source_transaction_id": sourceTransactionID,
		})
	} else {
		s.logger.Info().
			Str("player_id", playerID).
			Str("source_transaction_id", sourceTransactionID).
			Msg("grant already applied, replay ignored")
	}

	return grant, applied, nil
}
