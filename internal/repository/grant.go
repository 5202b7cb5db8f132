package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"runner-progression/internal/domain"

	"github.com/rs/zerolog"
)

// GrantRepository records applied storefront grants. The primary key on
// (player_id, source_transaction_id) is what makes GrantCurrency idempotent
// under storefront retries.
type GrantRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewGrantRepository(sqlDB *sql.DB, logger zerolog.Logger) *GrantRepository {
	return &GrantRepository{db: sqlDB, logger: logger}
}

func (r *GrantRepository) Insert(ctx context.Context, q DBTX, grant domain.CurrencyGrant) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO currency_grants (player_id, source_transaction_id, kind, amount, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, grant.PlayerID, grant.SourceTransactionID, string(grant.Kind), grant.Amount, grant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateGrant
		}
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

func (r *GrantRepository) Get(ctx context.Context, q DBTX, playerID, sourceTransactionID string) (*domain.CurrencyGrant, error) {
	grant := domain.CurrencyGrant{PlayerID: playerID, SourceTransactionID: sourceTransactionID}
	var kind string
	err := q.QueryRowContext(ctx, `
		SELECT kind, amount, created_at FROM currency_grants
		WHERE player_id = ? AND source_transaction_id = ?
	`, playerID, sourceTransactionID).Scan(&kind, &grant.Amount, &grant.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get grant: %w", err)
	}
	grant.Kind = domain.CurrencyKind(kind)
	return &grant, nil
}
