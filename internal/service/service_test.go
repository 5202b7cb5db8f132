package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"runner-progression/internal/database/dbtest"
	"runner-progression/internal/domain"
	"runner-progression/internal/notify"
	"runner-progression/internal/repository"

	"github.com/rs/zerolog"
)

// fixture wires the full engine over one throwaway database, the way fx does
// in production.
type fixture struct {
	db         *sql.DB
	ledger     *LedgerService
	collection *CollectionService
	upgrade    *UpgradeService
	deck       *DeckService
	rank       *RankService
	season     *SeasonService

	ledgerRepo     *repository.LedgerRepository
	collectionRepo *repository.CollectionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.Open(t))
}

// newFixtureOn builds services over an existing database, used to simulate a
// process restart against surviving state.
func newFixtureOn(t *testing.T, db *sql.DB) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	bus := notify.NewBus(logger)
	guard := NewPlayerGuard()

	ledgerRepo := repository.NewLedgerRepository(db, logger)
	grantRepo := repository.NewGrantRepository(db, logger)
	collectionRepo := repository.NewCollectionRepository(db, logger)
	deckRepo := repository.NewDeckRepository(db, logger)
	rankRepo := repository.NewRankRepository(db, logger)
	seasonRepo := repository.NewSeasonRepository(db, logger)

	return &fixture{
		db:             db,
		ledger:         NewLedgerService(db, ledgerRepo, grantRepo, guard, bus, logger),
		collection:     NewCollectionService(db, collectionRepo, guard, bus, logger),
		upgrade:        NewUpgradeService(db, collectionRepo, ledgerRepo, guard, bus, logger),
		deck:           NewDeckService(db, deckRepo, collectionRepo, guard, bus, logger),
		rank:           NewRankService(db, rankRepo, seasonRepo, guard, bus, logger),
		season:         NewSeasonService(db, seasonRepo, ledgerRepo, guard, bus, logger),
		ledgerRepo:     ledgerRepo,
		collectionRepo: collectionRepo,
	}
}

// seedCard writes a card record directly, bypassing the acquisition path, so
// tests can start mid-ladder.
func (f *fixture) seedCard(t *testing.T, record domain.CardRecord) {
	t.Helper()

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Level == 0 {
		record.Level = 1
	}
	if err := f.collectionRepo.Insert(context.Background(), f.db, record); err != nil {
		t.Fatalf("seed card %s: %v", record.CardID, err)
	}
}

// seedCoins funds the player's soft balance.
func (f *fixture) seedCoins(t *testing.T, playerID string, amount uint64) {
	t.Helper()

	ctx := context.Background()
	now := time.Now()
	if err := f.ledgerRepo.Ensure(ctx, f.db, playerID, now); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
	if amount > 0 {
		if err := f.ledgerRepo.Credit(ctx, f.db, playerID, domain.CurrencySoft, amount, now); err != nil {
			t.Fatalf("seed coins: %v", err)
		}
	}
}
