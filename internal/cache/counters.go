package cache

import "sync/atomic"

type counters struct {
	requests atomic.Int64
	hits     atomic.Int64
	creates  atomic.Int64
	waits    atomic.Int64
	bypasses atomic.Int64
	fulls    atomic.Int64
	finishes atomic.Int64
	aborts   atomic.Int64

	ticks          atomic.Int64
	removedEntries atomic.Int64
	reclaimedData  atomic.Int64
	freedBytes     atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) count(s Status) {
	switch s {
	case StatusHit:
		c.hits.Add(1)
	case StatusCreate:
		c.creates.Add(1)
	case StatusWait:
		c.waits.Add(1)
	case StatusFull:
		c.fulls.Add(1)
	default:
		c.bypasses.Add(1)
	}
}

// Metrics is a point-in-time copy of the cache counters and gauges.
type Metrics struct {
	Requests int64
	Hits     int64
	Creates  int64
	Waits    int64
	Bypasses int64
	Fulls    int64
	Finishes int64
	Aborts   int64

	Ticks          int64
	RemovedEntries int64
	ReclaimedData  int64
	FreedBytes     int64

	UsedMem   int64
	Capacity  int64
	Entries   int64
	Buckets   int64
	DataNodes int64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Requests:       c.requests.Load(),
		Hits:           c.hits.Load(),
		Creates:        c.creates.Load(),
		Waits:          c.waits.Load(),
		Bypasses:       c.bypasses.Load(),
		Fulls:          c.fulls.Load(),
		Finishes:       c.finishes.Load(),
		Aborts:         c.aborts.Load(),
		Ticks:          c.ticks.Load(),
		RemovedEntries: c.removedEntries.Load(),
		ReclaimedData:  c.reclaimedData.Load(),
		FreedBytes:     c.freedBytes.Load(),
	}
}
