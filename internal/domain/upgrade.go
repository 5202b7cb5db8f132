package domain

// Upgrade cost tables. Costs only ever grow along the ladder; the prestige
// coin surcharge keeps the curve non-decreasing past Legendary.
var (
	copiesByRarity = map[Rarity]uint{
		RarityCommon:    2,
		RarityRare:      5,
		RarityEpic:      10,
		RarityLegendary: 20,
	}
	coinsByRarity = map[Rarity]uint64{
		RarityCommon:    100,
		RarityRare:      500,
		RarityEpic:      2000,
		RarityLegendary: 5000,
	}
)

const prestigeCoinSurcharge uint64 = 1000

// UpgradeCost reports what the next upgrade of the record consumes. It is a
// pure function of (rarity, prestige).
func UpgradeCost(record CardRecord) (copiesNeeded uint, coinCost uint64) {
	copiesNeeded = copiesByRarity[record.Rarity]
	coinCost = coinsByRarity[record.Rarity]
	if record.Rarity == RarityLegendary {
		coinCost += prestigeCoinSurcharge * uint64(record.Prestige)
	}
	return copiesNeeded, coinCost
}

// CanUpgrade reports whether the record holds enough copies for its next
// upgrade. Coin affordability is checked against the ledger at upgrade time,
// not here.
func CanUpgrade(record CardRecord) bool {
	copiesNeeded, _ := UpgradeCost(record)
	return record.Copies >= copiesNeeded
}

// ApplyUpgrade returns the record after one upgrade step: copies consumed,
// rarity advanced below Legendary, prestige advanced at Legendary, level
// bumped. It assumes copies and funds were already validated.
func ApplyUpgrade(record CardRecord) CardRecord {
	copiesNeeded, _ := UpgradeCost(record)
	record.Copies -= copiesNeeded
	if record.Rarity < RarityLegendary {
		record.Rarity++
	} else {
		record.Prestige++
	}
	record.Level++
	return record
}
