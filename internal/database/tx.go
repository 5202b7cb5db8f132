package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runner-progression/internal/constants"
	"runner-progression/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/sethvargo/go-retry"
)

// WithTx runs fn inside a transaction. It commits if fn returns nil,
// otherwise it rolls back.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// IsTransient reports whether err is a lock-contention class failure worth
// retrying with the same idempotency keys.
func IsTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// WithRetry runs fn, retrying transient persistence failures with fibonacci
// backoff. Validation errors pass through untouched; a retry budget that runs
// out surfaces domain.ErrPersistenceUnavailable.
func WithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(constants.PersistenceMaxRetries,
		retry.NewFibonacci(constants.PersistenceRetryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if IsTransient(err) {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceUnavailable, err)
	}
	return err
}
