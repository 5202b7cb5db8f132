package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"runner-progression/internal/domain"

	"github.com/rs/zerolog"
)

type CollectionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCollectionRepository(sqlDB *sql.DB, logger zerolog.Logger) *CollectionRepository {
	return &CollectionRepository{db: sqlDB, logger: logger}
}

func scanCard(row interface{ Scan(...any) error }, record *domain.CardRecord) error {
	var kind string
	var rarity int
	err := row.Scan(&record.PlayerID, &record.CardID, &kind, &record.Copies,
		&record.Level, &rarity, &record.Prestige, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return err
	}
	record.Kind = domain.CardKind(kind)
	record.Rarity = domain.Rarity(rarity)
	if !record.Rarity.Valid() {
		return fmt.Errorf("%w: card %s has rarity %d", domain.ErrInvariantViolation, record.CardID, rarity)
	}
	return nil
}

const cardColumns = `player_id, card_id, kind, copies, level, rarity, prestige, created_at, updated_at`

func (r *CollectionRepository) Get(ctx context.Context, q DBTX, playerID, cardID string) (*domain.CardRecord, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE player_id = ? AND card_id = ?`,
		playerID, cardID)

	var record domain.CardRecord
	err := scanCard(row, &record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &record, nil
}

func (r *CollectionRepository) List(ctx context.Context, q DBTX, playerID string) ([]domain.CardRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE player_id = ? ORDER BY card_id`,
		playerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var records []domain.CardRecord
	for rows.Next() {
		var record domain.CardRecord
		if err := scanCard(rows, &record); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return records, nil
}

// Insert creates the collection entry for a newly acquired card id.
func (r *CollectionRepository) Insert(ctx context.Context, q DBTX, record domain.CardRecord) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.PlayerID, record.CardID, string(record.Kind), record.Copies,
		record.Level, int(record.Rarity), record.Prestige, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: card %s already exists", domain.ErrInvariantViolation, record.CardID)
		}
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// AddCopies adds acquired copies to an existing record.
func (r *CollectionRepository) AddCopies(ctx context.Context, q DBTX, playerID, cardID string, count uint, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE cards SET copies = copies + ?, updated_at = ?
		WHERE player_id = ? AND card_id = ?
	`, count, now, playerID, cardID)
	if err != nil {
		return fmt.Errorf("add copies: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update persists an upgraded record. The copies guard keeps a concurrent
// writer from driving the count negative; collection entries are never
// deleted.
func (r *CollectionRepository) Update(ctx context.Context, q DBTX, record domain.CardRecord, now time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE cards SET copies = ?, level = ?, rarity = ?, prestige = ?, updated_at = ?
		WHERE player_id = ? AND card_id = ?
	`, record.Copies, record.Level, int(record.Rarity), record.Prestige, now,
		record.PlayerID, record.CardID)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: negative copies on card %s", domain.ErrInvariantViolation, record.CardID)
		}
		return fmt.Errorf("update card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	r.logger.Debug().
		Str("player_id", record.PlayerID).
		Str("card_id", record.CardID).
		Str("rarity", record.Rarity.String()).
		Uint("level", record.Level).
		Uint("prestige", record.Prestige).
		Msg("card record updated")
	return nil
}
