package serve

import (
	"testing"

	"github.com/Borislavv/go-ash-httpcache/internal/cache/admission"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/data"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/pool"
	"github.com/stretchr/testify/require"
)

// sink is a Transport scripted by a queue of results; Accepted writes are recorded.
type sink struct {
	script []WriteResult
	out    []byte
	writes int
}

func (s *sink) TryWrite(p []byte) WriteResult {
	res := Accepted
	if len(s.script) > 0 {
		res, s.script = s.script[0], s.script[1:]
	}
	if res == Accepted {
		s.out = append(s.out, p...)
		s.writes++
	}
	return res
}

func newRing() *data.Ring {
	return data.NewRing(0, pool.New[data.Element]("element", 0, nil), admission.New(1<<20))
}

func fill(r *data.Ring, chunks ...string) data.Ref {
	ref, _ := r.New()
	for _, c := range chunks {
		r.Append(ref, []byte(c), nil)
	}
	return ref
}

// TestReader_StreamsCompleteData writes one chunk per step and releases at the end.
func TestReader_StreamsCompleteData(t *testing.T) {
	r := newRing()
	ref := fill(r, "HTTP/1.1 200 OK\r\n\r\n", "hello ", "world")
	r.Get(ref).MarkComplete()

	rd, ok := Attach(r, ref)
	require.True(t, ok)
	require.Equal(t, uint32(1), r.Get(ref).Clients())

	s := &sink{}
	for i := 0; i < 3; i++ {
		require.Equal(t, StatusProgress, rd.Step(s))
		require.Equal(t, i+1, s.writes, "at most one chunk per step")
	}
	require.Equal(t, StatusDone, rd.Step(s))
	require.Equal(t, "HTTP/1.1 200 OK\r\n\r\nhello world", string(s.out))
	require.Equal(t, int64(len(s.out)), rd.Sent())
	require.Equal(t, 3, rd.Chunks())
	require.Zero(t, r.Get(ref).Clients())

	require.Equal(t, StatusClosed, rd.Step(s), "released reader stays closed")
	rd.Detach()
	require.Zero(t, r.Get(ref).Clients(), "no double release")
}

// TestReader_FullDoesNotAdvance retries the same chunk after the transport drains.
func TestReader_FullDoesNotAdvance(t *testing.T) {
	r := newRing()
	ref := fill(r, "a", "b")
	r.Get(ref).MarkComplete()
	rd, _ := Attach(r, ref)

	s := &sink{script: []WriteResult{Full, Full, Accepted, Full, Accepted}}
	require.Equal(t, StatusBlocked, rd.Step(s))
	require.Equal(t, StatusBlocked, rd.Step(s))
	require.Equal(t, StatusProgress, rd.Step(s))
	require.Equal(t, StatusBlocked, rd.Step(s))
	require.Equal(t, StatusProgress, rd.Step(s))
	require.Equal(t, StatusDone, rd.Step(s))
	require.Equal(t, "ab", string(s.out))
}

// TestReader_FollowsFill waits for the writer and picks up chunks as they arrive.
func TestReader_FollowsFill(t *testing.T) {
	r := newRing()
	ref, _ := r.New()
	rd, _ := Attach(r, ref)
	s := &sink{}

	require.Equal(t, StatusPending, rd.Step(s), "no chunk yet")

	r.Append(ref, []byte("one"), nil)
	require.Equal(t, StatusProgress, rd.Step(s))
	require.Equal(t, StatusPending, rd.Step(s))

	r.Append(ref, []byte("two"), nil)
	r.Append(ref, []byte("three"), nil)
	require.Equal(t, StatusProgress, rd.Step(s))
	require.Equal(t, StatusProgress, rd.Step(s))
	require.Equal(t, StatusPending, rd.Step(s))

	r.Get(ref).MarkComplete()
	require.Equal(t, StatusDone, rd.Step(s))
	require.Equal(t, "onetwothree", string(s.out))
}

// TestReader_AbortedFill stops a reader following a fill that was abandoned.
func TestReader_AbortedFill(t *testing.T) {
	r := newRing()
	ref := fill(r, "partial")
	rd, _ := Attach(r, ref)
	s := &sink{}

	require.Equal(t, StatusProgress, rd.Step(s))
	r.Get(ref).Invalidate()
	require.Equal(t, StatusAborted, rd.Step(s))
	require.True(t, StatusAborted.Final())
	require.Zero(t, r.Get(ref).Clients())
}

// TestReader_SupersededDataStillServed finishes a complete body even after it was invalidated.
func TestReader_SupersededDataStillServed(t *testing.T) {
	r := newRing()
	ref := fill(r, "v1")
	r.Get(ref).MarkComplete()
	rd, _ := Attach(r, ref)
	r.Get(ref).Invalidate()

	_, reclaimed := r.CleanupStep()
	require.False(t, reclaimed, "pinned")

	s := &sink{}
	require.Equal(t, StatusProgress, rd.Step(s))
	require.Equal(t, StatusDone, rd.Step(s))

	freed, reclaimed := r.CleanupStep()
	require.True(t, reclaimed)
	require.Equal(t, int64(2), freed)
}

// TestReader_TransportClosed releases on a hard transport error.
func TestReader_TransportClosed(t *testing.T) {
	r := newRing()
	ref := fill(r, "a", "b")
	rd, _ := Attach(r, ref)

	require.Equal(t, StatusClosed, rd.Step(&sink{script: []WriteResult{Closed}}))
	require.Zero(t, r.Get(ref).Clients())
}

// TestReader_RefcountBalance returns clients to zero however readers end.
func TestReader_RefcountBalance(t *testing.T) {
	r := newRing()
	ref := fill(r, "x", "y")
	r.Get(ref).MarkComplete()

	done, _ := Attach(r, ref)
	closed, _ := Attach(r, ref)
	detached, _ := Attach(r, ref)
	require.Equal(t, uint32(3), r.Get(ref).Clients())

	s := &sink{}
	for !done.Step(s).Final() {
	}
	closed.Step(&sink{script: []WriteResult{Closed}})
	detached.Step(s)
	detached.Detach()
	detached.Detach()

	require.Zero(t, r.Get(ref).Clients())
	require.Equal(t, "xyx", string(s.out), "detach leaves shared chunks in place")
}

// TestAttach_StaleRef refuses data that was already reclaimed.
func TestAttach_StaleRef(t *testing.T) {
	r := newRing()
	ref := fill(r, "gone")
	r.Get(ref).Invalidate()
	r.CleanupStep()

	_, ok := Attach(r, ref)
	require.False(t, ok)
}
