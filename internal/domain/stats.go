package domain

// Derived combat stats. These are pure functions of (kind, rarity, level,
// prestige) so stored state can never diverge from what a client displays.

type CharacterStats struct {
	Speed  uint64 `json:"speed"`
	Health uint64 `json:"health"`
	Damage uint64 `json:"damage"`
}

type SkillStats struct {
	DurationMillis uint64 `json:"duration_millis"`
	Power          uint64 `json:"power"`
}

// CardStats carries whichever stat block matches the card's kind.
type CardStats struct {
	Character *CharacterStats `json:"character,omitempty"`
	Skill     *SkillStats     `json:"skill,omitempty"`
}

const (
	baseSpeed    uint64 = 100
	baseHealth   uint64 = 1000
	baseDamage   uint64 = 50
	baseDuration uint64 = 4000
	basePower    uint64 = 75
)

// Basis-point multipliers keep the formulas integral and deterministic.
var rarityBasisPoints = map[Rarity]uint64{
	RarityCommon:    10000,
	RarityRare:      12000,
	RarityEpic:      15000,
	RarityLegendary: 20000,
}

const (
	levelBasisPointsStep    uint64 = 500  // +5% per level past the first
	prestigeBasisPointsStep uint64 = 1000 // +10% per prestige
)

func scaleStat(base uint64, record CardRecord) uint64 {
	v := base * rarityBasisPoints[record.Rarity] / 10000
	level := record.Level
	if level == 0 {
		level = 1
	}
	v = v * (10000 + levelBasisPointsStep*uint64(level-1)) / 10000
	v = v * (10000 + prestigeBasisPointsStep*uint64(record.Prestige)) / 10000
	return v
}

// StatsFor computes the record's derived stats.
func StatsFor(record CardRecord) CardStats {
	if record.Kind == CardKindCharacter {
		return CardStats{Character: &CharacterStats{
			Speed:  scaleStat(baseSpeed, record),
			Health: scaleStat(baseHealth, record),
			Damage: scaleStat(baseDamage, record),
		}}
	}
	return CardStats{Skill: &SkillStats{
		DurationMillis: scaleStat(baseDuration, record),
		Power:          scaleStat(basePower, record),
	}}
}
