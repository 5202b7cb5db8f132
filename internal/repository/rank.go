package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"runner-progression/internal/domain"

	"github.com/rs/zerolog"
)

type RankRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRankRepository(sqlDB *sql.DB, logger zerolog.Logger) *RankRepository {
	return &RankRepository{db: sqlDB, logger: logger}
}

func (r *RankRepository) Get(ctx context.Context, q DBTX, playerID string) (*domain.RankState, error) {
	state := domain.RankState{PlayerID: playerID}
	var tier string
	err := q.QueryRowContext(ctx, `
		SELECT trophies, tier, prestige, updated_at FROM ranks WHERE player_id = ?
	`, playerID).Scan(&state.Trophies, &tier, &state.Prestige, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rank: %w", err)
	}
	state.Tier = domain.TierID(tier)
	return &state, nil
}

func (r *RankRepository) Upsert(ctx context.Context, q DBTX, state domain.RankState) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ranks (player_id, trophies, tier, prestige, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			trophies = excluded.trophies,
			tier = excluded.tier,
			prestige = excluded.prestige,
			updated_at = excluded.updated_at
	`, state.PlayerID, state.Trophies, string(state.Tier), state.Prestige, state.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: negative trophies", domain.ErrInvariantViolation)
		}
		return fmt.Errorf("upsert rank: %w", err)
	}

	r.logger.Debug().
		Str("player_id", state.PlayerID).
		Int64("trophies", state.Trophies).
		Str("tier", string(state.Tier)).
		Uint("prestige", state.Prestige).
		Msg("rank state persisted")
	return nil
}
