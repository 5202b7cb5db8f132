package domain

import "time"

type TierID string

const (
	TierRookie  TierID = "rookie"
	TierSilver  TierID = "silver"
	TierGold    TierID = "gold"
	TierDiamond TierID = "diamond"
	TierLegend  TierID = "legend"
)

// Tier is one competitive bracket. Bands are half-open [Min, Max); the top
// band is open-ended (Max < 0).
type Tier struct {
	ID          TierID `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	MinTrophies int64  `json:"min_trophies"`
	MaxTrophies int64  `json:"max_trophies"`
}

const (
	silverThreshold  int64 = 500
	goldThreshold    int64 = 2000
	diamondThreshold int64 = 3500
	legendThreshold  int64 = 4500

	// One rank prestige per full step of trophies banked above the Legend
	// threshold.
	prestigeTrophyStep int64 = 1000
)

var tiers = []Tier{
	{ID: TierRookie, Name: "Rookie", Label: "🥾", Color: "#8d6e63", MinTrophies: 0, MaxTrophies: silverThreshold},
	{ID: TierSilver, Name: "Silver", Label: "🥈", Color: "#b0bec5", MinTrophies: silverThreshold, MaxTrophies: goldThreshold},
	{ID: TierGold, Name: "Gold", Label: "🥇", Color: "#ffca28", MinTrophies: goldThreshold, MaxTrophies: diamondThreshold},
	{ID: TierDiamond, Name: "Diamond", Label: "💎", Color: "#4dd0e1", MinTrophies: diamondThreshold, MaxTrophies: legendThreshold},
	{ID: TierLegend, Name: "Legend", Label: "🏆", Color: "#ef5350", MinTrophies: legendThreshold, MaxTrophies: -1},
}

// Tiers returns the ladder in ascending order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierFor maps any non-negative trophy count to exactly one tier. Lower tier
// wins at a band's lower bound because bands are half-open.
func TierFor(trophies int64) Tier {
	for _, t := range tiers {
		if t.MaxTrophies < 0 || trophies < t.MaxTrophies {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// RankState is the live competitive standing of one player.
type RankState struct {
	PlayerID  string
	Trophies  int64
	Tier      TierID
	Prestige  uint
	UpdatedAt time.Time
}

// NewRankState is the standing a fresh profile starts with.
func NewRankState(playerID string, now time.Time) RankState {
	return RankState{PlayerID: playerID, Trophies: 0, Tier: TierRookie, UpdatedAt: now}
}

// prestigeFor derives prestige from a trophy count: one per full step above
// the Legend threshold.
func prestigeFor(trophies int64) uint {
	if trophies <= legendThreshold {
		return 0
	}
	return uint((trophies - legendThreshold) / prestigeTrophyStep)
}

// ApplyDelta applies a signed match result. Trophies clamp at zero, the tier
// is recomputed unconditionally, and prestige only ever grows: it tracks the
// highest trophy watermark the player has banked past the Legend threshold,
// so a losing streak never takes accrued prestige away.
func ApplyDelta(state RankState, delta int64, now time.Time) RankState {
	trophies := state.Trophies + delta
	if trophies < 0 {
		trophies = 0
	}
	state.Trophies = trophies
	state.Tier = TierFor(trophies).ID
	if p := prestigeFor(trophies); p > state.Prestige {
		state.Prestige = p
	}
	state.UpdatedAt = now
	return state
}
