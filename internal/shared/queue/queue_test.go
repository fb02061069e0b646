package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct{ id int }

// TestQueue_HoldsSizeMinusOne leaves one slot empty, so Init(n+1) holds exactly n values.
func TestQueue_HoldsSizeMinusOne(t *testing.T) {
	for _, n := range []int{1, 3, 16} {
		var q Queue[*item]
		q.Init(n + 1)
		for i := 0; i < n; i++ {
			require.True(t, q.TryPush(&item{id: i}))
		}
		require.False(t, q.TryPush(&item{}), "n=%d", n)
		require.Equal(t, n, q.Len())
	}
}

// TestQueue_InitMinSize still holds one value when asked for less.
func TestQueue_InitMinSize(t *testing.T) {
	var q Queue[int]
	q.Init(0)
	require.True(t, q.TryPush(7))
	require.False(t, q.TryPush(8))
}

// TestQueue_RoundRobin pops and re-pushes like a scheduler cycling its streams.
func TestQueue_RoundRobin(t *testing.T) {
	var q Queue[*item]
	q.Init(4)
	for i := 0; i < 3; i++ {
		require.True(t, q.TryPush(&item{id: i}))
	}

	var order []int
	for round := 0; round < 3; round++ {
		for n := q.Len(); n > 0; n-- {
			it, ok := q.TryPop()
			require.True(t, ok)
			order = append(order, it.id)
			if it.id != round { // item <round> leaves after its turn in that round
				require.True(t, q.TryPush(it))
			}
		}
	}
	require.Equal(t, []int{0, 1, 2, 1, 2, 2}, order)
	require.Zero(t, q.Len())

	_, ok := q.TryPop()
	require.False(t, ok)
}

// TestQueue_PopClearsSlot drops the reference so a finished value can be collected.
func TestQueue_PopClearsSlot(t *testing.T) {
	var q Queue[*item]
	q.Init(3)
	require.True(t, q.TryPush(&item{id: 1}))

	_, ok := q.TryPop()
	require.True(t, ok)
	for _, slot := range q.buf {
		require.Nil(t, slot)
	}
}

// TestQueue_ConcurrentPush never loses or duplicates values pushed from many goroutines.
func TestQueue_ConcurrentPush(t *testing.T) {
	const workers, each = 8, 100
	var q Queue[int]
	q.Init(workers*each + 1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				require.True(t, q.TryPush(w*each+i))
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[int]bool, workers*each)
	for {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		require.False(t, seen[v])
		seen[v] = true
	}
	require.Len(t, seen, workers*each)
}
