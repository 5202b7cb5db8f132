package domain

import "time"

// SeasonRecord is one player's standing for one competitive season. The peak
// trophy watermark advances while the season is open; the gem reward is
// frozen exactly once when the season closes, and Claimed flips false→true
// exactly once.
type SeasonRecord struct {
	PlayerID     string
	SeasonID     string
	PeakTrophies int64
	Closed       bool
	Claimed      bool
	GemReward    uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Gem reward bonus steps. The product notes quote a worked example that does
// not match this table; the table is authoritative (content discrepancy, not
// a logic bug).
var gemBonusSteps = []struct {
	minPeak int64
	bonus   uint64
}{
	{4500, 50},
	{3500, 25},
	{2000, 10},
}

// GemReward computes the one-time season payout for a peak trophy count.
// Deterministic: the persisted reward and any later recomputation agree.
func GemReward(peakTrophies int64) uint64 {
	if peakTrophies < 0 {
		return 0
	}
	reward := uint64(peakTrophies / 100)
	for _, step := range gemBonusSteps {
		if peakTrophies >= step.minPeak {
			reward += step.bonus
			break
		}
	}
	return reward
}
