package cache

import (
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

// TestCounters_Snapshot verifies that counters correctly track and snapshot metrics.
func TestCounters_Snapshot(t *testing.T) {
	c := newCounters()
	require.Equal(t, Metrics{}, c.snapshot())

	c.count(StatusHit)
	c.count(StatusHit)
	c.count(StatusCreate)
	c.count(StatusWait)
	c.count(StatusFull)
	c.count(StatusBypass)
	c.freedBytes.Add(1024)

	m := c.snapshot()
	require.Equal(t, int64(2), m.Hits)
	require.Equal(t, int64(1), m.Creates)
	require.Equal(t, int64(1), m.Waits)
	require.Equal(t, int64(1), m.Fulls)
	require.Equal(t, int64(1), m.Bypasses)
	require.Equal(t, int64(1024), m.FreedBytes)
}

// TestCounters_Concurrent verifies that counters are thread-safe.
func TestCounters_Concurrent(t *testing.T) {
	c := newCounters()

	const numGoroutines = 10
	const opsPerGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				c.requests.Add(1)
				c.count(StatusHit)
			}
		}()
	}
	wg.Wait()

	m := c.snapshot()
	require.Equal(t, int64(numGoroutines*opsPerGoroutine), m.Requests)
	require.Equal(t, int64(numGoroutines*opsPerGoroutine), m.Hits)
}

// TestStatus_String names every outcome.
func TestStatus_String(t *testing.T) {
	require.Equal(t, "HIT", StatusHit.String())
	require.Equal(t, "FULL", StatusFull.String())
	require.Equal(t, "UNKNOWN", Status(42).String())
}
