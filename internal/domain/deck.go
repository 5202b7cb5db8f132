package domain

// DeckCapacity is the fixed number of active skill-card slots.
const DeckCapacity = 4

// DeckSlot binds one slot index to an owned skill card. Removal leaves a
// hole; additions fill the lowest-index empty slot so rendering stays stable.
type DeckSlot struct {
	PlayerID string
	Slot     int
	CardID   string
}

// LowestEmptySlot finds the first free slot index among the occupied slots,
// or -1 when the deck is full. Slots are expected unique; duplicates are an
// invariant violation the caller surfaces.
func LowestEmptySlot(occupied []DeckSlot) int {
	var taken [DeckCapacity]bool
	for _, s := range occupied {
		if s.Slot >= 0 && s.Slot < DeckCapacity {
			taken[s.Slot] = true
		}
	}
	for i := 0; i < DeckCapacity; i++ {
		if !taken[i] {
			return i
		}
	}
	return -1
}
