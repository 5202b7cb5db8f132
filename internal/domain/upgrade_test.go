package domain

import (
	"testing"
	"time"
)

func TestUpgradeCost_MonotonicAlongLadder(t *testing.T) {
	t.Parallel()

	record := NewCardRecord("p1", "dash", CardKindSkill, 0, time.Now())

	var prevCopies uint
	var prevCoins uint64

	// Walk the full ladder: every rarity step plus a stretch of prestige.
	for step := 0; step < 20; step++ {
		copiesNeeded, coinCost := UpgradeCost(record)
		if copiesNeeded < prevCopies {
			t.Fatalf("step %d (%s p%d): copiesNeeded %d < previous %d",
				step, record.Rarity, record.Prestige, copiesNeeded, prevCopies)
		}
		if coinCost < prevCoins {
			t.Fatalf("step %d (%s p%d): coinCost %d < previous %d",
				step, record.Rarity, record.Prestige, coinCost, prevCoins)
		}
		prevCopies, prevCoins = copiesNeeded, coinCost

		record.Copies = copiesNeeded
		record = ApplyUpgrade(record)
	}
}

func TestUpgradeCost_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rarity     Rarity
		prestige   uint
		wantCopies uint
		wantCoins  uint64
	}{
		{RarityCommon, 0, 2, 100},
		{RarityRare, 0, 5, 500},
		{RarityEpic, 0, 10, 2000},
		{RarityLegendary, 0, 20, 5000},
		{RarityLegendary, 3, 20, 8000},
	}

	for _, tt := range tests {
		record := CardRecord{Rarity: tt.rarity, Prestige: tt.prestige}
		copiesNeeded, coinCost := UpgradeCost(record)
		if copiesNeeded != tt.wantCopies || coinCost != tt.wantCoins {
			t.Errorf("UpgradeCost(%s p%d) = (%d, %d), want (%d, %d)",
				tt.rarity, tt.prestige, copiesNeeded, coinCost, tt.wantCopies, tt.wantCoins)
		}
	}
}

func TestCanUpgrade(t *testing.T) {
	t.Parallel()

	record := CardRecord{Rarity: RarityRare, Copies: 4}
	if CanUpgrade(record) {
		t.Fatal("CanUpgrade with 4/5 copies should be false")
	}
	record.Copies = 5
	if !CanUpgrade(record) {
		t.Fatal("CanUpgrade with 5/5 copies should be true")
	}

	// Legendary below the prestige threshold is simply not upgradeable yet;
	// there is no cap.
	legendary := CardRecord{Rarity: RarityLegendary, Prestige: 7, Copies: 19}
	if CanUpgrade(legendary) {
		t.Fatal("legendary with 19/20 copies should not be upgradeable")
	}
}

func TestApplyUpgrade_Transitions(t *testing.T) {
	t.Parallel()

	t.Run("rarity_advances_below_legendary", func(t *testing.T) {
		t.Parallel()

		record := CardRecord{Rarity: RarityRare, Copies: 7, Level: 3}
		got := ApplyUpgrade(record)

		if got.Rarity != RarityEpic {
			t.Fatalf("rarity = %s, want epic", got.Rarity)
		}
		if got.Copies != 2 {
			t.Fatalf("copies = %d, want 2 (consumed exactly 5)", got.Copies)
		}
		if got.Level != 4 {
			t.Fatalf("level = %d, want 4", got.Level)
		}
		if got.Prestige != 0 {
			t.Fatalf("prestige = %d, want 0", got.Prestige)
		}
	})

	t.Run("prestige_advances_at_legendary", func(t *testing.T) {
		t.Parallel()

		record := CardRecord{Rarity: RarityLegendary, Copies: 25, Level: 10, Prestige: 1}
		got := ApplyUpgrade(record)

		if got.Rarity != RarityLegendary {
			t.Fatalf("rarity = %s, want legendary (terminal)", got.Rarity)
		}
		if got.Prestige != 2 {
			t.Fatalf("prestige = %d, want 2", got.Prestige)
		}
		if got.Copies != 5 {
			t.Fatalf("copies = %d, want 5", got.Copies)
		}
	})
}
