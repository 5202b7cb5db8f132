package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"runner-progression/internal/database/dbtest"
	"runner-progression/internal/domain"
)

func TestSeasonCloseFreezesReward(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.rank.ApplyMatchResult(ctx, "p1", 4820, "s1"); err != nil {
		t.Fatalf("ApplyMatchResult: %v", err)
	}

	record, err := f.season.Close(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !record.Closed {
		t.Fatal("season not closed")
	}
	if record.GemReward != 98 {
		t.Fatalf("gem reward = %d, want 98 for peak 4820", record.GemReward)
	}

	// Closing again is a no-op; later trophies never touch a closed season.
	if _, err := f.rank.ApplyMatchResult(ctx, "p1", 600, "s1"); err != nil {
		t.Fatalf("ApplyMatchResult after close: %v", err)
	}
	again, err := f.season.Close(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if again.GemReward != 98 || again.PeakTrophies != 4820 {
		t.Fatalf("second close changed settlement: reward=%d peak=%d", again.GemReward, again.PeakTrophies)
	}
}

func TestSeasonClaimCreditsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.rank.ApplyMatchResult(ctx, "p1", 2500, "s1"); err != nil {
		t.Fatalf("ApplyMatchResult: %v", err)
	}
	if _, err := f.season.Close(ctx, "p1", "s1"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first, err := f.season.Claim(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if first.AlreadyClaimed {
		t.Fatal("first claim reported as already claimed")
	}
	if first.Granted != 35 {
		t.Fatalf("granted = %d, want 35 for peak 2500", first.Granted)
	}

	second, err := f.season.Claim(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if !second.AlreadyClaimed {
		t.Fatal("second claim should report already claimed")
	}

	ledger, err := f.ledger.Ledger(ctx, "p1")
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if ledger.Premium != 35 {
		t.Fatalf("premium balance = %d, want exactly one credit of 35", ledger.Premium)
	}
}

func TestSeasonClaimWhileOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.rank.ApplyMatchResult(ctx, "p1", 1200, "s1"); err != nil {
		t.Fatalf("ApplyMatchResult: %v", err)
	}

	_, err := f.season.Claim(ctx, "p1", "s1")
	if !errors.Is(err, domain.ErrSeasonOpen) {
		t.Fatalf("Claim on open season = %v, want ErrSeasonOpen", err)
	}
}

func TestSeasonClaimSurvivesRestart(t *testing.T) {
	t.Parallel()

	db := dbtest.Open(t)
	f := newFixtureOn(t, db)
	ctx := context.Background()

	if _, err := f.rank.ApplyMatchResult(ctx, "p1", 3000, "s1"); err != nil {
		t.Fatalf("ApplyMatchResult: %v", err)
	}
	if _, err := f.season.Close(ctx, "p1", "s1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := f.season.Claim(ctx, "p1", "s1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// A fresh process over the same database must see the claim, not re-credit.
	restarted := newFixtureOn(t, db)
	result, err := restarted.season.Claim(ctx, "p1", "s1")
	if err != nil {
		t.Fatalf("Claim after restart: %v", err)
	}
	if !result.AlreadyClaimed {
		t.Fatal("restarted process re-granted a claimed reward")
	}

	ledger, err := restarted.ledger.Ledger(ctx, "p1")
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if want := domain.GemReward(3000); ledger.Premium != want {
		t.Fatalf("premium balance = %d, want single credit of %d", ledger.Premium, want)
	}
}

func TestSeasonClaimConcurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.rank.ApplyMatchResult(ctx, "p1", 5000, "s1"); err != nil {
		t.Fatalf("ApplyMatchResult: %v", err)
	}
	if _, err := f.season.Close(ctx, "p1", "s1"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.season.Claim(ctx, "p1", "s1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}

	ledger, err := f.ledger.Ledger(ctx, "p1")
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if want := domain.GemReward(5000); ledger.Premium != want {
		t.Fatalf("premium balance = %d, want single credit of %d", ledger.Premium, want)
	}
}

func TestSeasonUnknown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.season.Season(context.Background(), "p1", "never")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Season = %v, want ErrNotFound", err)
	}
}
