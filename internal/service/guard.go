package service

import "sync"

// PlayerGuard serializes mutations per player profile. Every operation that
// reads-then-writes the ledger or the collection runs under the player's
// lock, so two in-flight upgrades (or an upgrade racing a claim) can never
// interleave.
type PlayerGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPlayerGuard() *PlayerGuard {
	return &PlayerGuard{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the player's lock and returns the unlock func.
func (g *PlayerGuard) Lock(playerID string) func() {
	g.mu.Lock()
	lock, ok := g.locks[playerID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[playerID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
