package telemetry

import (
	"github.com/Borislavv/go-ash-httpcache/internal/cache"
	"github.com/Borislavv/go-ash-httpcache/internal/loop"
)

// CacheSource exposes engine counters.
type CacheSource interface {
	Metrics() cache.Metrics
}

// LoopSource exposes event loop counters.
type LoopSource interface {
	Metrics() loop.Metrics
}

type sampler struct {
	cache CacheSource
	loop  LoopSource
}

func newSampler(c CacheSource, l LoopSource) sampler {
	return sampler{cache: c, loop: l}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	requests uint64
	hits     uint64
	creates  uint64
	waits    uint64
	bypasses uint64
	fulls    uint64
	finishes uint64
	aborts   uint64

	ticks          uint64
	removedEntries uint64
	reclaimedData  uint64
	freedBytes     uint64

	streams  uint64
	rejected uint64
	done     uint64
	aborted  uint64
	closed   uint64
	sent     uint64
}

func (s sampler) snapshot() snapshot {
	c := s.cache.Metrics()
	var l loop.Metrics
	if s.loop != nil {
		l = s.loop.Metrics()
	}

	return snapshot{
		requests: uint64(max(c.Requests, 0)),
		hits:     uint64(max(c.Hits, 0)),
		creates:  uint64(max(c.Creates, 0)),
		waits:    uint64(max(c.Waits, 0)),
		bypasses: uint64(max(c.Bypasses, 0)),
		fulls:    uint64(max(c.Fulls, 0)),
		finishes: uint64(max(c.Finishes, 0)),
		aborts:   uint64(max(c.Aborts, 0)),

		ticks:          uint64(max(c.Ticks, 0)),
		removedEntries: uint64(max(c.RemovedEntries, 0)),
		reclaimedData:  uint64(max(c.ReclaimedData, 0)),
		freedBytes:     uint64(max(c.FreedBytes, 0)),

		streams:  uint64(max(l.Streams, 0)),
		rejected: uint64(max(l.Rejected, 0)),
		done:     uint64(max(l.Done, 0)),
		aborted:  uint64(max(l.Aborted, 0)),
		closed:   uint64(max(l.Closed, 0)),
		sent:     uint64(max(l.Sent, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		requests: delta(prev.requests, cur.requests),
		hits:     delta(prev.hits, cur.hits),
		creates:  delta(prev.creates, cur.creates),
		waits:    delta(prev.waits, cur.waits),
		bypasses: delta(prev.bypasses, cur.bypasses),
		fulls:    delta(prev.fulls, cur.fulls),
		finishes: delta(prev.finishes, cur.finishes),
		aborts:   delta(prev.aborts, cur.aborts),

		ticks:          delta(prev.ticks, cur.ticks),
		removedEntries: delta(prev.removedEntries, cur.removedEntries),
		reclaimedData:  delta(prev.reclaimedData, cur.reclaimedData),
		freedBytes:     delta(prev.freedBytes, cur.freedBytes),

		streams:  delta(prev.streams, cur.streams),
		rejected: delta(prev.rejected, cur.rejected),
		done:     delta(prev.done, cur.done),
		aborted:  delta(prev.aborted, cur.aborted),
		closed:   delta(prev.closed, cur.closed),
		sent:     delta(prev.sent, cur.sent),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
