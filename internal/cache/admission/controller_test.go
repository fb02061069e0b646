package admission

import (
	"github.com/stretchr/testify/require"
	"testing"
)

// TestController_Full flips exactly at capacity.
func TestController_Full(t *testing.T) {
	c := New(1000)
	require.False(t, c.Full())

	c.Add(999)
	require.False(t, c.Full())

	c.Add(1)
	require.True(t, c.Full())

	c.Add(200)
	require.True(t, c.Full())
	require.Equal(t, int64(1200), c.Used())

	c.Add(-201)
	require.False(t, c.Full())
	require.Equal(t, int64(999), c.Used())
	require.Equal(t, int64(1000), c.Capacity())
}
