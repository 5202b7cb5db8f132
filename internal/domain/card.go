package domain

import (
	"fmt"
	"time"
)

type CardKind string

const (
	CardKindCharacter CardKind = "character"
	CardKindSkill     CardKind = "skill"
)

func ParseCardKind(s string) (CardKind, error) {
	switch CardKind(s) {
	case CardKindCharacter, CardKindSkill:
		return CardKind(s), nil
	default:
		return "", fmt.Errorf("unknown card kind %q", s)
	}
}

// Rarity is the ordered quality ladder. Legendary is terminal; upgrades past
// it accrue prestige instead.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityRare:
		return "rare"
	case RarityEpic:
		return "epic"
	case RarityLegendary:
		return "legendary"
	default:
		return fmt.Sprintf("rarity(%d)", int(r))
	}
}

func (r Rarity) Valid() bool {
	return r >= RarityCommon && r <= RarityLegendary
}

// CardRecord is the persistent per-card state. Derived stats are never
// stored; see StatsFor.
type CardRecord struct {
	PlayerID  string
	CardID    string
	Kind      CardKind
	Copies    uint
	Level     uint
	Rarity    Rarity
	Prestige  uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCardRecord is the state a record starts in the first time a player
// acquires a copy of the card.
func NewCardRecord(playerID, cardID string, kind CardKind, copies uint, now time.Time) CardRecord {
	return CardRecord{
		PlayerID:  playerID,
		CardID:    cardID,
		Kind:      kind,
		Copies:    copies,
		Level:     1,
		Rarity:    RarityCommon,
		Prestige:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
