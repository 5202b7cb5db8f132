package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"runner-progression/internal/database/dbtest"
	"runner-progression/internal/domain"

	"github.com/rs/zerolog"
)

func TestLedgerRepository_CreditAndDebit(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewLedgerRepository(db, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	if err := repo.Ensure(ctx, db, "p1", now); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := repo.Credit(ctx, db, "p1", domain.CurrencySoft, 1000, now); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := repo.Debit(ctx, db, "p1", domain.CurrencySoft, 250, now); err != nil {
		t.Fatalf("debit: %v", err)
	}

	ledger, err := repo.Get(ctx, db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ledger.Soft != 750 {
		t.Fatalf("soft = %d, want 750", ledger.Soft)
	}
	if ledger.Premium != 0 {
		t.Fatalf("premium = %d, want 0 (balances are independent)", ledger.Premium)
	}
}

func TestLedgerRepository_DebitFailsClosed(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewLedgerRepository(db, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	if err := repo.Ensure(ctx, db, "p1", now); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := repo.Credit(ctx, db, "p1", domain.CurrencyPremium, 200, now); err != nil {
		t.Fatalf("credit: %v", err)
	}

	err := repo.Debit(ctx, db, "p1", domain.CurrencyPremium, 300, now)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("debit err = %v, want ErrInsufficientFunds", err)
	}

	ledger, err := repo.Get(ctx, db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ledger.Premium != 200 {
		t.Fatalf("premium = %d, want 200 (no partial debit)", ledger.Premium)
	}
}

func TestLedgerRepository_DebitExactToZero(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewLedgerRepository(db, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	if err := repo.Ensure(ctx, db, "p1", now); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := repo.Credit(ctx, db, "p1", domain.CurrencySoft, 300, now); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := repo.Debit(ctx, db, "p1", domain.CurrencySoft, 300, now); err != nil {
		t.Fatalf("debit to zero: %v", err)
	}

	ledger, err := repo.Get(ctx, db, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ledger.Soft != 0 {
		t.Fatalf("soft = %d, want 0", ledger.Soft)
	}
}

func TestLedgerRepository_CreditOverflowRejected(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewLedgerRepository(db, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	if err := repo.Ensure(ctx, db, "p1", now); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := repo.Credit(ctx, db, "p1", domain.CurrencySoft, domain.MaxBalance, now); err != nil {
		t.Fatalf("credit to cap: %v", err)
	}

	err := repo.Credit(ctx, db, "p1", domain.CurrencySoft, 1, now)
	if !errors.Is(err, domain.ErrOutOfRange) {
		t.Fatalf("credit past cap err = %v, want ErrOutOfRange", err)
	}
}

func TestGrantRepository_DuplicateKeyed(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	repo := NewGrantRepository(db, zerolog.Nop())
	ctx := context.Background()

	grant := domain.CurrencyGrant{
		PlayerID:            "p1",
		SourceTransactionID: "txn-001",
		Kind:                domain.CurrencyPremium,
		Amount:              80,
		CreatedAt:           time.Now(),
	}

	if err := repo.Insert(ctx, db, grant); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := repo.Insert(ctx, db, grant)
	if !errors.Is(err, domain.ErrDuplicateGrant) {
		t.Fatalf("duplicate insert err = %v, want ErrDuplicateGrant", err)
	}

	// Same id for a different player is a distinct grant.
	grant.PlayerID = "p2"
	if err := repo.Insert(ctx, db, grant); err != nil {
		t.Fatalf("insert for other player: %v", err)
	}

	stored, err := repo.Get(ctx, db, "p1", "txn-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Amount != 80 || stored.Kind != domain.CurrencyPremium {
		t.Fatalf("stored grant = %+v, want amount 80 premium", stored)
	}
}
