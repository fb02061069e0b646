package pool

import (
	"github.com/stretchr/testify/require"
	"testing"
)

type node struct {
	v    int
	next *node
}

// TestPool_GetPut recycles returned objects.
func TestPool_GetPut(t *testing.T) {
	p := New[node]("node", 0, nil)

	a, ok := p.Get()
	require.True(t, ok)
	a.v = 42
	require.Equal(t, int64(1), p.Live())

	p.Put(a)
	require.Equal(t, int64(0), p.Live())
	require.Equal(t, 1, p.Idle())

	b, ok := p.Get()
	require.True(t, ok)
	require.Same(t, a, b, "object should be reused")
	require.Equal(t, 0, b.v, "object should be zeroed on Put")
}

// TestPool_Limit refuses to allocate past the limit.
func TestPool_Limit(t *testing.T) {
	p := New[node]("node", 2, nil)

	a, ok := p.Get()
	require.True(t, ok)
	_, ok = p.Get()
	require.True(t, ok)

	_, ok = p.Get()
	require.False(t, ok, "pool should be exhausted")

	p.Put(a)
	_, ok = p.Get()
	require.True(t, ok, "a freed slot should be available again")
}

// TestPool_Reset applies the custom reset function.
func TestPool_Reset(t *testing.T) {
	var resets int
	p := New[node]("node", 0, func(n *node) {
		resets++
		n.v = -1
		n.next = nil
	})

	a, _ := p.Get()
	a.v = 7
	p.Put(a)
	p.Put(nil)

	require.Equal(t, 1, resets)
	require.Equal(t, -1, a.v)
	require.Equal(t, "node", p.Name())
	require.Equal(t, int64(0), p.Limit())
}
