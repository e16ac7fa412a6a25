package app

import (
	"sync"

	"github.com/jellydator/ttlcache/v3"
)

type playerLock struct {
	mu sync.Mutex
	// holders counts the owner and every waiter; guarded by playerLocks.mu
	holders int
}

// playerLocks hands out one mutex per player so recomputations of the same
// player run one at a time within this process.
// Entries never expire; an entry is removed when its last holder unlocks.
type playerLocks struct {
	mu    sync.Mutex
	locks *ttlcache.Cache[string, *playerLock]
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{
		locks: ttlcache.New[string, *playerLock](
			ttlcache.WithTTL[string, *playerLock](ttlcache.NoTTL),
		),
	}
}

func (l *playerLocks) acquire(playerID string) *playerLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, _ := l.locks.GetOrSet(playerID, &playerLock{})
	entry := item.Value()
	entry.holders++
	return entry
}

func (l *playerLocks) release(playerID string, entry *playerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.holders--
	if entry.holders == 0 {
		l.locks.Delete(playerID)
	}
}

// lock blocks until the player's mutex is held and returns the unlock function
func (l *playerLocks) lock(playerID string) func() {
	entry := l.acquire(playerID)
	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.release(playerID, entry)
	}
}

func (l *playerLocks) len() int {
	return l.locks.Len()
}
