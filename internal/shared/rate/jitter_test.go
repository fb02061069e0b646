package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// drainFor counts tokens received on ch within d.
func drainFor(ch <-chan struct{}, d time.Duration) int {
	deadline := time.After(d)
	n := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
		case <-deadline:
			return n
		}
	}
}

// TestNewJitter_ClampsLimit turns a non-positive rate into one token per second.
func TestNewJitter_ClampsLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, limit := range []int{0, -5} {
		jitter := NewJitter(ctx, limit)
		require.Equal(t, 1, jitter.Limit())
		require.Equal(t, 1, cap(jitter.ch))
	}
}

// TestNewJitter_BufferIsTenthOfRate sizes the token buffer to a tenth of a second of ticks.
func TestNewJitter_BufferIsTenthOfRate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.Equal(t, 100, cap(NewJitter(ctx, 1000).ch))
	require.Equal(t, 1, cap(NewJitter(ctx, 5).ch))
}

// TestJitter_NoCatchUpAfterIdle gives an idle housekeeper at most the buffered ticks back,
// not the ticks it missed.
func TestJitter_NoCatchUpAfterIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const limit = 100 // 10ms per tick, buffer of 10
	jitter := NewJitter(ctx, limit)

	// 30 ticks worth of idleness
	time.Sleep(300 * time.Millisecond)

	// buffer + the token held by a blocked provider + the one due right away + ~5 paced
	got := drainFor(jitter.Chan(), 50*time.Millisecond)
	require.GreaterOrEqual(t, got, cap(jitter.ch))
	require.LessOrEqual(t, got, cap(jitter.ch)+10, "missed ticks must not be replayed")
}

// TestJitter_Paced keeps a busy consumer near the configured rate.
func TestJitter_Paced(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jitter := NewJitter(ctx, 50) // 20ms per tick, buffer of 5
	drainFor(jitter.Chan(), 20*time.Millisecond)

	got := drainFor(jitter.Chan(), 200*time.Millisecond)
	require.GreaterOrEqual(t, got, 5)
	require.LessOrEqual(t, got, 15)
}

// TestJitter_ClosesOnCancel closes the tick channel so a select on it stops firing.
func TestJitter_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jitter := NewJitter(ctx, 1000)

	jitter.Take()
	cancel()

	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-jitter.Chan():
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)

	// Take does not block on a closed channel
	jitter.Take()
}
