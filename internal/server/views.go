package server

import (
	"time"

	"runner-progression/internal/domain"
)

type ledgerView struct {
	PlayerID string `json:"player_id"`
	Soft     uint64 `json:"soft"`
	Premium  uint64 `json:"premium"`
}

func toLedgerView(l *domain.Ledger) ledgerView {
	return ledgerView{PlayerID: l.PlayerID, Soft: l.Soft, Premium: l.Premium}
}

type upgradeCostView struct {
	CopiesNeeded uint   `json:"copies_needed"`
	CoinCost     uint64 `json:"coin_cost"`
}

type cardView struct {
	CardID      string           `json:"card_id"`
	Kind        string           `json:"kind"`
	Copies      uint             `json:"copies"`
	Level       uint             `json:"level"`
	Rarity      string           `json:"rarity"`
	Prestige    uint             `json:"prestige"`
	Stats       domain.CardStats `json:"stats"`
	CanUpgrade  bool             `json:"can_upgrade"`
	UpgradeCost upgradeCostView  `json:"upgrade_cost"`
}

func toCardView(record domain.CardRecord) cardView {
	copiesNeeded, coinCost := domain.UpgradeCost(record)
	return cardView{
		CardID:      record.CardID,
		Kind:        string(record.Kind),
		Copies:      record.Copies,
		Level:       record.Level,
		Rarity:      record.Rarity.String(),
		Prestige:    record.Prestige,
		Stats:       domain.StatsFor(record),
		CanUpgrade:  domain.CanUpgrade(record),
		UpgradeCost: upgradeCostView{CopiesNeeded: copiesNeeded, CoinCost: coinCost},
	}
}

type rankView struct {
	PlayerID  string      `json:"player_id"`
	Trophies  int64       `json:"trophies"`
	Tier      domain.Tier `json:"tier"`
	Prestige  uint        `json:"prestige"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toRankView(state *domain.RankState) rankView {
	return rankView{
		PlayerID:  state.PlayerID,
		Trophies:  state.Trophies,
		Tier:      domain.TierFor(state.Trophies),
		Prestige:  state.Prestige,
		UpdatedAt: state.UpdatedAt,
	}
}

type deckSlotView struct {
	Slot   int    `json:"slot"`
	CardID string `json:"card_id"`
}

type deckView struct {
	Capacity int            `json:"capacity"`
	Slots    []deckSlotView `json:"slots"`
}

func toDeckView(slots []domain.DeckSlot) deckView {
	view := deckView{Capacity: domain.DeckCapacity, Slots: []deckSlotView{}}
	for _, s := range slots {
		view.Slots = append(view.Slots, deckSlotView{Slot: s.Slot, CardID: s.CardID})
	}
	return view
}

type seasonView struct {
	SeasonID     string `json:"season_id"`
	PeakTrophies int64  `json:"peak_trophies"`
	Closed       bool   `json:"closed"`
	Claimed      bool   `json:"claimed"`
	GemReward    uint64 `json:"gem_reward"`
}

func toSeasonView(record *domain.SeasonRecord) seasonView {
	return seasonView{
		SeasonID:     record.SeasonID,
		PeakTrophies: record.PeakTrophies,
		Closed:       record.Closed,
		Claimed:      record.Claimed,
		GemReward:    record.GemReward,
	}
}
