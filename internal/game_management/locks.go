package game_management

import "sync"

// gameLocks serializes membership and lifecycle mutations per game. Joins,
// exclusions, admin transfers and phase transitions for the same game never
// run concurrently; different games do not contend.
type gameLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[uint]*sync.Mutex)}
}

func (g *gameLocks) Lock(gameID uint) *sync.Mutex {
	g.mu.Lock()
	l, ok := g.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[gameID] = l
	}
	g.mu.Unlock()
	l.Lock()
	return l
}

// Forget drops a game's lock entry once the game is deleted.
func (g *gameLocks) Forget(gameID uint) {
	g.mu.Lock()
	delete(g.locks, gameID)
	g.mu.Unlock()
}
