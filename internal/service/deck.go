package service

import (
	"context"
	"database/sql"
	"fmt"

	"runner-progression/internal/constants"
	"runner-progression/internal/database"
	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"

	"github.com/rs/zerolog"
)

type DeckService struct {
	db             *sql.DB
	deckRepo       *repository.DeckRepository
	collectionRepo *repository.CollectionRepository
	guard          *PlayerGuard
	bus            *notify.Bus
	logger         zerolog.Logger
}

func NewDeckService(sqlDB *sql.DB, deckRepo *repository.DeckRepository, collectionRepo *repository.CollectionRepository, guard *PlayerGuard, bus *notify.Bus, logger zerolog.Logger) *DeckService {
	return &DeckService{db: sqlDB, deckRepo: deckRepo, collectionRepo: collectionRepo, guard: guard, bus: bus, logger: logger}
}

// Toggle flips a card's deck membership: present cards are removed, absent
// owned skill cards fill the lowest empty slot. A full deck rejects the add
// without mutating anything.
func (s *DeckService) Toggle(ctx context.Context, playerID, cardID string) (added bool, deck []domain.DeckSlot, err error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	unlock := s.guard.Lock(playerID)
	defer unlock()

	err = database.WithRetry(ctx, func(ctx context.Context) error {
		return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			removed, err := s.deckRepo.DeleteByCard(ctx, tx, playerID, cardID)
			if err != nil {
				return err
			}
			if removed {
				added = false
				deck, err = s.deckRepo.List(ctx, tx, playerID)
				return err
			}

			record, err := s.collectionRepo.Get(ctx, tx, playerID, cardID)
			if err != nil {
				return err
			}
			if record.Kind != domain.CardKindSkill {
				return domain.ErrNotSkillCard
			}

			slots, err := s.deckRepo.List(ctx, tx, playerID)
			if err != nil {
				return err
			}
			if len(slots) >= domain.DeckCapacity {
				return domain.ErrDeckFull
			}

			slot := domain.LowestEmptySlot(slots)
			if slot < 0 {
				return fmt.Errorf("%w: %d slots occupy a deck of capacity %d",
					domain.ErrInvariantViolation, len(slots), domain.DeckCapacity)
			}

			if err := s.deckRepo.Insert(ctx, tx, domain.DeckSlot{
				PlayerID: playerID,
				Slot:     slot,
				CardID:   cardID,
			}); err != nil {
				return err
			}

			added = true
			deck, err = s.deckRepo.List(ctx, tx, playerID)
			return err
		})
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("player_id", playerID).
			Str("card_id", cardID).
			Msg("deck toggle rejected")
		return false, nil, err
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("card_id", cardID).
		Bool("added", added).
		Int("deck_size", len(deck)).
		Msg("deck toggled")

	s.bus.Publish(playerID, notify.EventDeckChanged, map[string]any{
		"card_id": cardID,
		"added":   added,
	})

	return added, deck, nil
}

func (s *DeckService) Deck(ctx context.Context, playerID string) ([]domain.DeckSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	return s.deckRepo.List(ctx, s.db, playerID)
}
