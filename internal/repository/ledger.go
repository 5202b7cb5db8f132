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

type LedgerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLedgerRepository(sqlDB *sql.DB, logger zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{db: sqlDB, logger: logger}
}

func balanceColumn(kind domain.CurrencyKind) string {
	if kind == domain.CurrencyPremium {
		return "premium"
	}
	return "soft"
}

// Ensure creates the player's ledger row with zero balances if absent.
func (r *LedgerRepository) Ensure(ctx context.Context, q DBTX, playerID string, now time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ledgers (player_id, soft, premium, created_at, updated_at)
		VALUES (?, 0, 0, ?, ?)
		ON CONFLICT (player_id) DO NOTHING
	`, playerID, now, now)
	if err != nil {
		return fmt.Errorf("ensure ledger: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Get(ctx context.Context, q DBTX, playerID string) (*domain.Ledger, error) {
	ledger := domain.Ledger{PlayerID: playerID}
	err := q.QueryRowContext(ctx, `
		SELECT soft, premium, created_at, updated_at FROM ledgers WHERE player_id = ?
	`, playerID).Scan(&ledger.Soft, &ledger.Premium, &ledger.CreatedAt, &ledger.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return &ledger, nil
}

// Credit increases one balance, rejecting additions the storage column could
// not hold.
func (r *LedgerRepository) Credit(ctx context.Context, q DBTX, playerID string, kind domain.CurrencyKind, amount uint64, now time.Time) error {
	if amount == 0 {
		return domain.ErrInvalidAmount
	}

	ledger, err := r.Get(ctx, q, playerID)
	if err != nil {
		return err
	}
	if _, err := domain.AddBalance(ledger.Balance(kind), amount); err != nil {
		return err
	}

	col := balanceColumn(kind)
	res, err := q.ExecContext(ctx,
		`UPDATE ledgers SET `+col+` = `+col+` + ?, updated_at = ? WHERE player_id = ?`,
		amount, now, playerID)
	if err != nil {
		return fmt.Errorf("credit %s: %w", kind, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	r.logger.Debug().
		Str("player_id", playerID).
		Str("kind", string(kind)).
		Uint64("amount", amount).
		Msg("balance credited")
	return nil
}

// Debit decreases one balance, failing closed when the balance is short. The
// guard lives in the WHERE clause so a partial debit is never observable.
func (r *LedgerRepository) Debit(ctx context.Context, q DBTX, playerID string, kind domain.CurrencyKind, amount uint64, now time.Time) error {
	if amount == 0 {
		return domain.ErrInvalidAmount
	}

	col := balanceColumn(kind)
	res, err := q.ExecContext(ctx,
		`UPDATE ledgers SET `+col+` = `+col+` - ?, updated_at = ?
		 WHERE player_id = ? AND `+col+` >= ?`,
		amount, now, playerID, amount)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: negative balance on debit", domain.ErrInvariantViolation)
		}
		return fmt.Errorf("debit %s: %w", kind, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s rows affected: %w", kind, err)
	}
	if n == 0 {
		return domain.ErrInsufficientFunds
	}

	r.logger.Debug().
		Str("player_id", playerID).
		Str("kind", string(kind)).
		Uint64("amount", amount).
		Msg("balance debited")
	return nil
}
