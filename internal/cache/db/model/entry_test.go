package model

import (
	"github.com/Borislavv/go-ash-httpcache/internal/cache/data"
	"github.com/stretchr/testify/require"
	"testing"
)

// TestEntry_Lifecycle walks Creating -> Valid -> Expired -> Creating -> Invalid.
func TestEntry_Lifecycle(t *testing.T) {
	var e Entry
	e.Init(42, "x/a")

	require.Equal(t, StateCreating, e.State())
	require.True(t, e.Matches(42, "x/a"))
	require.False(t, e.Matches(42, "x/b"), "same hash, different key")
	require.False(t, e.Matches(43, "x/a"))

	e.Validate(100)
	require.True(t, e.Is(StateValid))
	require.Equal(t, int64(100), e.ExpireAt())

	require.False(t, e.Expire(99))
	require.True(t, e.Expire(100))
	require.Equal(t, StateExpired, e.State())
	require.False(t, e.Expire(200), "only valid entries expire")

	e.Bind(data.Ref{})
	require.Equal(t, StateCreating, e.State())
	require.Zero(t, e.ExpireAt())

	e.Invalidate()
	require.Equal(t, "invalid", e.State().String())
}

// TestEntry_NeverExpires keeps a zero-deadline entry valid.
func TestEntry_NeverExpires(t *testing.T) {
	var e Entry
	e.Init(1, "k")
	e.Validate(0)

	require.False(t, e.Expire(1<<62))
	require.Equal(t, StateValid, e.State())
}

// TestEntry_Init clears leftovers of a recycled entry.
func TestEntry_Init(t *testing.T) {
	var e, other Entry
	e.Init(1, "a")
	e.Validate(10)
	e.SetNext(&other)

	e.Init(2, "b")
	require.Nil(t, e.Next())
	require.Zero(t, e.ExpireAt())
	require.Equal(t, uint64(2), e.Hash())
	require.Equal(t, "b", e.Key())
	require.True(t, e.Data().IsNil())
}
