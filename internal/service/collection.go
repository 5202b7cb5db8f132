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

type CollectionService struct {
	db             *sql.DB
	collectionRepo *repository.CollectionRepository
	guard          *PlayerGuard
	bus            *notify.Bus
	logger         zerolog.Logger
}

func NewCollectionService(sqlDB *sql.DB, collectionRepo *repository.CollectionRepository, guard *PlayerGuard, bus *notify.Bus, logger zerolog.Logger) *CollectionService {
	return &CollectionService{db: sqlDB, collectionRepo: collectionRepo, guard: guard, bus: bus, logger: logger}
}

// Acquire adds copies of a card, creating the collection entry on first
// acquisition (one copy bundle, level 1, common, no prestige).
func (s *CollectionService) Acquire(ctx context.Context, playerID, cardID string, kind domain.CardKind, count uint) (*domain.CardRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if count == 0 {
		return nil, domain.ErrInvalidAmount
	}

	unlock := s.guard.Lock(playerID)
	defer unlock()

	var record *domain.CardRecord
	err := database.WithRetry(ctx, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			now := time.Now()

			existing, err := s.collectionRepo.Get(ctx, tx, playerID, cardID)
			if errors.Is(err, domain.ErrNotFound) {
				created := domain.NewCardRecord(playerID, cardID, kind, count, now)
				if err := s.collectionRepo.Insert(ctx, tx, created); err != nil {
					return err
				}
				record = &created
				return nil
			}
			if err != nil {
				return err
			}

			if err := s.collectionRepo.AddCopies(ctx, tx, playerID, cardID, count, now); err != nil {
				return err
			}
			existing.Copies += count
			existing.UpdatedAt = now
			record = existing
			return nil
		})
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("player_id", playerID).
			Str("card_id", cardID).
			Msg("failed to acquire card")
		return nil, err
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("card_id", cardID).
		Uint("count", count).
		Uint("copies", record.Copies).
		Msg("card copies acquired")

	s.bus.Publish(playerID, notify.EventCardAcquired, map[string]any{
		"card_id": cardID,
		"count":   count,
		"copies":  record.Copies,
	})

	return record, nil
}

func (s *CollectionService) Collection(ctx context.Context, playerID string) ([]domain.CardRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.collectionRepo.List(ctx, s.db, playerID)
}

func (s *CollectionService) Card(ctx context.Context, playerID, cardID string) (*domain.CardRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.collectionRepo.Get(ctx, s.db, playerID, cardID)
}
