package repository

import (
	"context"
	"database/sql"
	"fmt"

	"runner-progression/internal/domain"

	"github.com/rs/zerolog"
)

type DeckRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewDeckRepository(sqlDB *sql.DB, logger zerolog.Logger) *DeckRepository {
	return &DeckRepository{db: sqlDB, logger: logger}
}

// List returns the occupied slots in slot order so the deck renders the same
// across save/load.
func (r *DeckRepository) List(ctx context.Context, q DBTX, playerID string) ([]domain.DeckSlot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT slot, card_id FROM deck_slots WHERE player_id = ? ORDER BY slot
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list deck slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.DeckSlot
	for rows.Next() {
		slot := domain.DeckSlot{PlayerID: playerID}
		if err := rows.Scan(&slot.Slot, &slot.CardID); err != nil {
			return nil, fmt.Errorf("scan deck slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deck slots: %w", err)
	}
	return slots, nil
}

func (r *DeckRepository) Insert(ctx context.Context, q DBTX, slot domain.DeckSlot) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO deck_slots (player_id, slot, card_id) VALUES (?, ?, ?)
	`, slot.PlayerID, slot.Slot, slot.CardID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: slot %d or card %s already in deck", domain.ErrInvariantViolation, slot.Slot, slot.CardID)
		}
		return fmt.Errorf("insert deck slot: %w", err)
	}
	return nil
}

// DeleteByCard removes the card's slot if present, reporting whether a row
// was removed.
func (r *DeckRepository) DeleteByCard(ctx context.Context, q DBTX, playerID, cardID string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		DELETE FROM deck_slots WHERE player_id = ? AND card_id = ?
	`, playerID, cardID)
	if err != nil {
		return false, fmt.Errorf("delete deck slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete deck slot rows affected: %w", err)
	}
	return n > 0, nil
}
