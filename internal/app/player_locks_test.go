package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlayerLocks(t *testing.T) {
	t.Parallel()

	t.Run("entry is removed after the last holder unlocks", func(t *testing.T) {
		t.Parallel()

		locks := newPlayerLocks()

		unlock := locks.lock("alpha")
		require.Equal(t, 1, locks.len())

		unlock()
		require.Equal(t, 0, locks.len())
	})

	t.Run("entry survives while a caller waits", func(t *testing.T) {
		t.Parallel()

		locks := newPlayerLocks()
		unlockFirst := locks.lock("alpha")

		acquired := make(chan func())
		go func() {
			acquired <- locks.lock("alpha")
		}()

		require.Eventually(t, func() bool {
			locks.mu.Lock()
			defer locks.mu.Unlock()
			item := locks.locks.Get("alpha")
			return item != nil && item.Value().holders == 2
		}, 2*time.Second, time.Millisecond)

		select {
		case <-acquired:
			require.FailNow(t, "lock acquired while held")
		case <-time.After(50 * time.Millisecond):
		}

		unlockFirst()
		require.Equal(t, 1, locks.len())

		var unlockSecond func()
		select {
		case unlockSecond = <-acquired:
		case <-time.After(2 * time.Second):
			require.FailNow(t, "waiter never acquired the lock")
		}

		unlockSecond()
		require.Equal(t, 0, locks.len())
	})

	t.Run("players are independent", func(t *testing.T) {
		t.Parallel()

		locks := newPlayerLocks()
		unlockAlpha := locks.lock("alpha")
		unlockBravo := locks.lock("bravo")
		require.Equal(t, 2, locks.len())

		unlockAlpha()
		unlockBravo()
		require.Equal(t, 0, locks.len())
	})
}
