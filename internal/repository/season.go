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

type SeasonRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSeasonRepository(sqlDB *sql.DB, logger zerolog.Logger) *SeasonRepository {
	return &SeasonRepository{db: sqlDB, logger: logger}
}

func (r *SeasonRepository) Get(ctx context.Context, q DBTX, playerID, seasonID string) (*domain.SeasonRecord, error) {
	record := domain.SeasonRecord{PlayerID: playerID, SeasonID: seasonID}
	err := q.QueryRowContext(ctx, `
		SELECT peak_trophies, closed, claimed, gem_reward, created_at, updated_at
		FROM seasons WHERE player_id = ? AND season_id = ?
	`, playerID, seasonID).Scan(&record.PeakTrophies, &record.Closed, &record.Claimed,
		&record.GemReward, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}
	return &record, nil
}

// EnsureOpen creates the season row for the player if it does not exist yet.
func (r *SeasonRepository) EnsureOpen(ctx context.Context, q DBTX, playerID, seasonID string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO seasons (player_id, season_id, peak_trophies, closed, claimed, gem_reward, created_at, updated_at)
		VALUES (?, ?, 0, 0, 0, 0, ?, ?)
		ON CONFLICT (player_id, season_id) DO NOTHING
	`, playerID, seasonID, now, now)
	if err != nil {
		return fmt.Errorf("ensure season: %w", err)
	}
	return nil
}

// RaiseWatermark lifts the peak-trophy watermark of every open season for the
// player. Closed seasons are frozen.
func (r *SeasonRepository) RaiseWatermark(ctx context.Context, q DBTX, playerID string, trophies int64, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE seasons SET peak_trophies = MAX(peak_trophies, ?), updated_at = ?
		WHERE player_id = ? AND closed = 0
	`, trophies, now, playerID)
	if err != nil {
		return fmt.Errorf("raise season watermark: %w", err)
	}
	return nil
}

// Close freezes the season and its gem reward. Reports whether this call did
// the closing; false means it was already closed and the stored reward stands.
func (r *SeasonRepository) Close(ctx context.Context, q DBTX, playerID, seasonID string, gemReward uint64, now time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE seasons SET closed = 1, gem_reward = ?, updated_at = ?
		WHERE player_id = ? AND season_id = ? AND closed = 0
	`, gemReward, now, playerID, seasonID)
	if err != nil {
		return false, fmt.Errorf("close season: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close season rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkClaimed flips claimed false→true. Reports whether this call won the
// flip; false means the reward was already claimed.
func (r *SeasonRepository) MarkClaimed(ctx context.Context, q DBTX, playerID, seasonID string, now time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE seasons SET claimed = 1, updated_at = ?
		WHERE player_id = ? AND season_id = ? AND closed = 1 AND claimed = 0
	`, now, playerID, seasonID)
	if err != nil {
		return false, fmt.Errorf("mark season claimed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark season claimed rows affected: %w", err)
	}
	if n > 0 {
		r.logger.Debug().
			Str("player_id", playerID).
			Str("season_id", seasonID).
			Msg("season marked claimed")
	}
	return n > 0, nil
}
